package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace_backend/internal/feature/admin/usecase"
	"marketplace_backend/internal/feature/auth/domain/entity"
	jwtmw "marketplace_backend/internal/platform/jwt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockAdminUsecase はAdminUsecaseインターフェースのモック実装です。
type mockAdminUsecase struct {
	ListUsersFunc  func(ctx context.Context) ([]entity.User, error)
	GetUserFunc    func(ctx context.Context, id string) (*entity.User, error)
	DeleteUserFunc func(ctx context.Context, id string) error
}

func (m *mockAdminUsecase) ListUsers(ctx context.Context) ([]entity.User, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(ctx)
	}
	return nil, nil
}

func (m *mockAdminUsecase) GetUser(ctx context.Context, id string) (*entity.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return nil, usecase.ErrUserNotFound
}

func (m *mockAdminUsecase) DeleteUser(ctx context.Context, id string) error {
	if m.DeleteUserFunc != nil {
		return m.DeleteUserFunc(ctx, id)
	}
	return nil
}

func newRouter(h *AdminHandler) *gin.Engine {
	return newRouterAs(h, "admin-1", entity.RoleAdmin)
}

// newRouterAs は認証ミドルウェアの代わりに指定のIDとロールをコンテキストへ設定するルーターを生成します。
// userIDが空の場合は未認証として扱います。
func newRouterAs(h *AdminHandler, userID string, role entity.Role) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set(jwtmw.ContextUserID, userID)
			c.Set(jwtmw.ContextRole, role.String())
		}
		c.Next()
	})
	r.GET("/users", h.ListUsers)
	r.GET("/users/:id", h.GetUser)
	r.DELETE("/users/:id", h.DeleteUser)
	return r
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

// TestNewAdminHandler はNewAdminHandlerコンストラクタが正しくインスタンスを生成することを検証します。
func TestNewAdminHandler(t *testing.T) {
	t.Parallel()

	handler := NewAdminHandler(&mockAdminUsecase{})

	assert.NotNil(t, handler, "handler should not be nil")
	assert.NotNil(t, handler.uc, "usecase should not be nil")
}

func TestAdminHandler_ListUsers(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		uc := &mockAdminUsecase{ListUsersFunc: func(context.Context) ([]entity.User, error) {
			return []entity.User{
				{ID: "u-1", Email: "a@example.com", PasswordHash: "hash-a", Role: entity.RoleStudent},
				{ID: "u-2", Email: "b@example.com", PasswordHash: "hash-b", Role: entity.RoleAdmin},
			}, nil
		}}

		w := serve(newRouter(NewAdminHandler(uc)), http.MethodGet, "/users")

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Success bool `json:"success"`
			Users   []struct {
				ID   string `json:"id"`
				Role string `json:"role"`
			} `json:"users"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		require.Len(t, resp.Users, 2)
		assert.Equal(t, "admin", resp.Users[1].Role)
		assert.NotContains(t, w.Body.String(), "hash-a")
	})

	t.Run("empty list is an empty array", func(t *testing.T) {
		t.Parallel()

		w := serve(newRouter(NewAdminHandler(&mockAdminUsecase{})), http.MethodGet, "/users")

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"users":[]}`, w.Body.String())
	})

	t.Run("store error", func(t *testing.T) {
		t.Parallel()
		uc := &mockAdminUsecase{ListUsersFunc: func(context.Context) ([]entity.User, error) {
			return nil, errors.New("db down")
		}}

		w := serve(newRouter(NewAdminHandler(uc)), http.MethodGet, "/users")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "db down")
	})
}

func TestAdminHandler_GetUser(t *testing.T) {
	t.Parallel()

	uc := &mockAdminUsecase{GetUserFunc: func(_ context.Context, id string) (*entity.User, error) {
		if id == "u-1" {
			return &entity.User{ID: "u-1", Email: "a@example.com", Role: entity.RoleStudent}, nil
		}
		return nil, usecase.ErrUserNotFound
	}}
	r := newRouter(NewAdminHandler(uc))

	w := serve(r, http.MethodGet, "/users/u-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"a@example.com"`)

	w = serve(r, http.MethodGet, "/users/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"User not found"}`, w.Body.String())
}

// TestAdminHandler_GetUser_Access は管理者以外が自分以外のユーザーを参照できないことを検証します。
func TestAdminHandler_GetUser_Access(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		userID     string
		role       entity.Role
		wantStatus int
		wantCalled bool
	}{
		{"student reads own record", "u-1", entity.RoleStudent, http.StatusOK, true},
		{"student reads another user", "u-2", entity.RoleStudent, http.StatusForbidden, false},
		{"admin reads any user", "admin-1", entity.RoleAdmin, http.StatusOK, true},
		{"no identity", "", entity.RoleStudent, http.StatusForbidden, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			called := false
			uc := &mockAdminUsecase{GetUserFunc: func(_ context.Context, id string) (*entity.User, error) {
				called = true
				return &entity.User{ID: id, Email: "a@example.com", Phone: "+81-90-1111-2222", Role: entity.RoleStudent}, nil
			}}

			w := serve(newRouterAs(NewAdminHandler(uc), tt.userID, tt.role), http.MethodGet, "/users/u-1")

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCalled, called)
			if tt.wantStatus == http.StatusForbidden {
				assert.NotContains(t, w.Body.String(), "a@example.com")
				assert.NotContains(t, w.Body.String(), "+81-90-1111-2222")
			}
		})
	}
}

func TestAdminHandler_DeleteUser(t *testing.T) {
	t.Parallel()

	var deleted []string
	uc := &mockAdminUsecase{DeleteUserFunc: func(_ context.Context, id string) error {
		if id == "missing" {
			return usecase.ErrUserNotFound
		}
		deleted = append(deleted, id)
		return nil
	}}
	r := newRouter(NewAdminHandler(uc))

	w := serve(r, http.MethodDelete, "/users/u-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"u-1"}, deleted)

	w = serve(r, http.MethodDelete, "/users/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
