// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace_backend/internal/feature/auth/domain/entity"
	"marketplace_backend/internal/feature/auth/transport/http/dto"
	"marketplace_backend/internal/feature/auth/usecase"
	jwtmw "marketplace_backend/internal/platform/jwt"
	"marketplace_backend/internal/platform/metrics"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgServerError        = "Server error. Please try again."
)

// AuthUsecase は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.AuthResult, error)
	Login(ctx context.Context, email, password string) (*usecase.AuthResult, error)
	AdminLogin(ctx context.Context, email, password string) (*usecase.AuthResult, error)
	CheckEmail(ctx context.Context, email string) (bool, error)
	Profile(ctx context.Context, token string) (*entity.User, error)
	UpdateProfile(ctx context.Context, token string, in usecase.UpdateProfileInput) (*entity.User, error)
}

// AuthEventRecorder は認証イベントの成否を記録します。
type AuthEventRecorder interface {
	RecordAuthEvent(event string, success bool)
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
// AuthUsecaseインターフェースに依存し、JSONリクエスト/レスポンスを処理します。
type AuthHandler struct {
	auth   AuthUsecase
	events AuthEventRecorder
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
// eventsはnilでも構いません。
func NewAuthHandler(auth AuthUsecase, events AuthEventRecorder) *AuthHandler {
	return &AuthHandler{auth: auth, events: events}
}

func (h *AuthHandler) record(event string, err error) {
	if h.events != nil {
		h.events.RecordAuthEvent(event, err == nil)
	}
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, dto.MessageRes{Success: false, Message: message})
}

// respondError はusecaseのエラーをHTTPステータスとメッセージに変換します。
// 想定外のエラーはサーバーログにのみ詳細を残し、クライアントには汎用メッセージを返します。
func respondError(c *gin.Context, op string, err error) {
	var verr *usecase.ValidationError
	switch {
	case errors.As(err, &verr):
		fail(c, http.StatusBadRequest, verr.Message)
	case errors.Is(err, usecase.ErrDuplicateEmail):
		fail(c, http.StatusBadRequest, "User with this email already exists")
	case errors.Is(err, usecase.ErrIncorrectCurrentPassword):
		fail(c, http.StatusUnauthorized, "Current password is incorrect")
	case errors.Is(err, usecase.ErrInvalidCredentials):
		// ユーザー列挙攻撃を防止するため、未登録とパスワード誤りを区別しない
		fail(c, http.StatusUnauthorized, msgInvalidCredentials)
	case errors.Is(err, jwtmw.ErrTokenExpired):
		fail(c, http.StatusUnauthorized, "Token expired")
	case errors.Is(err, usecase.ErrUnauthorized):
		fail(c, http.StatusUnauthorized, "Invalid token")
	case errors.Is(err, usecase.ErrUserNotFound):
		fail(c, http.StatusNotFound, "User not found")
	default:
		slog.Error(op+" failed", "error", err, "remote_addr", c.ClientIP())
		fail(c, http.StatusInternalServerError, msgServerError)
	}
}

// Register はユーザー登録APIエンドポイントを処理します。
// - 必須項目の欠落や規約未同意は400を返却
// - メール重複は400を返却
// - 成功時はユーザー情報とトークンを201で返却
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("register validation failed", "error", err, "remote_addr", c.ClientIP())
		fail(c, http.StatusBadRequest, "Please fill all fields including terms agreement")
		return
	}

	res, err := h.auth.Register(c.Request.Context(), usecase.RegisterInput{
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		Password:     req.Password,
		AgreeToTerms: req.AgreeToTerms,
	})
	h.record(metrics.EventRegister, err)
	if err != nil {
		slog.Warn("register failed", "error", err, "email", req.Email, "remote_addr", c.ClientIP())
		respondError(c, "register", err)
		return
	}

	slog.Info("user registered", "user_id", res.User.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, dto.SessionRes{
		Success: true,
		Message: "User registered successfully",
		Data:    dto.NewRegisterData(res.User, res.Token),
	})
}

// Login はユーザーログインAPIエンドポイントを処理します。
// - 欠落時は400を返却
// - 認証失敗時は理由に関わらず同一メッセージで401を返却
// - 成功時はユーザー情報・受講コース・トークンを200で返却
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		fail(c, http.StatusBadRequest, "Please provide email and password")
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	h.record(metrics.EventLogin, err)
	if err != nil {
		// 実際の失敗理由（未登録/パスワード誤り）はログにのみ残す
		slog.Warn("login failed", "error", err, "email", req.Email, "remote_addr", c.ClientIP())
		respondError(c, "login", err)
		return
	}

	slog.Info("user login successful", "user_id", res.User.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, dto.SessionRes{
		Success: true,
		Message: "Login successful",
		Data:    dto.NewLoginData(res.User, res.Token),
	})
}

// AdminLogin は管理者ログインAPIエンドポイントを処理します。
// 管理者以外のアカウントは正しいパスワードでも401になります。
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("admin login validation failed", "error", err, "remote_addr", c.ClientIP())
		fail(c, http.StatusBadRequest, "Please provide email and password")
		return
	}

	res, err := h.auth.AdminLogin(c.Request.Context(), req.Email, req.Password)
	h.record(metrics.EventAdminLogin, err)
	if err != nil {
		slog.Warn("admin login failed", "error", err, "email", req.Email, "remote_addr", c.ClientIP())
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		respondError(c, "admin login", err)
		return
	}

	slog.Info("admin login successful", "user_id", res.User.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, dto.AdminLoginRes{
		Success: true,
		Token:   res.Token,
		Admin: dto.AdminInfo{
			ID:    res.User.ID,
			Email: res.User.Email,
			Name:  res.User.FullName,
			Role:  res.User.Role.String(),
		},
	})
}

// CheckEmail はメールアドレスの登録有無を返します。
func (h *AuthHandler) CheckEmail(c *gin.Context) {
	var req dto.CheckEmailReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Email is required")
		return
	}

	exists, err := h.auth.CheckEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, "check email", err)
		return
	}
	c.JSON(http.StatusOK, dto.CheckEmailRes{Success: true, Exists: exists})
}

// Profile は認証済みユーザー自身のプロフィールを返します。
func (h *AuthHandler) Profile(c *gin.Context) {
	token, _ := jwtmw.BearerToken(c.GetHeader("Authorization"))

	user, err := h.auth.Profile(c.Request.Context(), token)
	if err != nil {
		respondError(c, "get profile", err)
		return
	}
	c.JSON(http.StatusOK, dto.ProfileRes{Success: true, User: dto.NewUserRes(user)})
}

// UpdateProfile は認証済みユーザー自身のプロフィールを更新します。
// トークンはミドルウェアとは独立にusecase内で再検証されます。
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("update profile validation failed", "error", err, "remote_addr", c.ClientIP())
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	token, _ := jwtmw.BearerToken(c.GetHeader("Authorization"))

	user, err := h.auth.UpdateProfile(c.Request.Context(), token, usecase.UpdateProfileInput{
		FullName:        req.FullName,
		Email:           req.Email,
		Phone:           req.Phone,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	h.record(metrics.EventProfileUpdate, err)
	if err != nil {
		slog.Warn("update profile failed", "error", err, "remote_addr", c.ClientIP())
		respondError(c, "update profile", err)
		return
	}

	slog.Info("profile updated", "user_id", user.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, dto.ProfileRes{
		Success: true,
		Message: "Profile updated successfully",
		User:    dto.NewUserRes(user),
	})
}
