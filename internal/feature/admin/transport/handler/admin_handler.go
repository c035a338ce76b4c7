// Package handler はadminフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace_backend/internal/feature/admin/usecase"
	"marketplace_backend/internal/feature/auth/domain/entity"
	"marketplace_backend/internal/feature/auth/transport/http/dto"
	jwtmw "marketplace_backend/internal/platform/jwt"
)

// AdminUsecase はユーザー管理のユースケースを定義します。
// Goの慣例に従い、インターフェースはコンシューマー（handler）が定義します。
type AdminUsecase interface {
	ListUsers(ctx context.Context) ([]entity.User, error)
	GetUser(ctx context.Context, id string) (*entity.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// AdminHandler はユーザー管理のHTTPリクエストを処理します。
type AdminHandler struct {
	uc AdminUsecase
}

// NewAdminHandler は新しい AdminHandler を作成します。
func NewAdminHandler(uc AdminUsecase) *AdminHandler {
	return &AdminHandler{uc: uc}
}

type usersRes struct {
	Success bool          `json:"success"`
	Users   []dto.UserRes `json:"users"`
}

// ListUsers は全ユーザーの一覧を返します。パスワードハッシュは含みません。
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.uc.ListUsers(c.Request.Context())
	if err != nil {
		slog.Error("list users failed", "error", err)
		c.JSON(http.StatusInternalServerError, dto.MessageRes{Message: "Server error. Please try again."})
		return
	}
	out := make([]dto.UserRes, 0, len(users))
	for i := range users {
		out = append(out, dto.NewUserRes(&users[i]))
	}
	c.JSON(http.StatusOK, usersRes{Success: true, Users: out})
}

// GetUser は指定IDのユーザーを返します。
// 管理者は任意のユーザーを、それ以外は自分自身のみ参照できます。
func (h *AdminHandler) GetUser(c *gin.Context) {
	id := c.Param("id")
	actor, ok := jwtmw.IdentityFrom(c)
	if !ok || (actor.Role != entity.RoleAdmin.String() && actor.UserID != id) {
		slog.Warn("user lookup denied", "user_id", actor.UserID, "target", id)
		c.JSON(http.StatusForbidden, dto.MessageRes{Message: "you do not have permission to access this resource"})
		return
	}
	user, err := h.uc.GetUser(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "get user", err)
		return
	}
	c.JSON(http.StatusOK, dto.ProfileRes{Success: true, User: dto.NewUserRes(user)})
}

// DeleteUser は指定IDのユーザーを物理削除します。
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if err := h.uc.DeleteUser(c.Request.Context(), id); err != nil {
		h.respondError(c, "delete user", err)
		return
	}
	actor, _ := jwtmw.IdentityFrom(c)
	slog.Info("user deleted", "user_id", id, "by", actor.UserID)
	c.JSON(http.StatusOK, dto.MessageRes{Success: true, Message: "User deleted successfully"})
}

func (h *AdminHandler) respondError(c *gin.Context, op string, err error) {
	if errors.Is(err, usecase.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, dto.MessageRes{Message: "User not found"})
		return
	}
	slog.Error(op+" failed", "error", err, "remote_addr", c.ClientIP())
	c.JSON(http.StatusInternalServerError, dto.MessageRes{Message: "Server error. Please try again."})
}
