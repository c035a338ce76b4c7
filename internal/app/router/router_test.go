package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"marketplace_backend/internal/app/di"
	adminusecase "marketplace_backend/internal/feature/admin/usecase"
	"marketplace_backend/internal/feature/auth/domain/entity"
	jwtmw "marketplace_backend/internal/platform/jwt"
	"marketplace_backend/internal/platform/metrics"
	"marketplace_backend/internal/platform/password"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testApp struct {
	router *gin.Engine
	store  adminusecase.UserStore
	hasher *password.BcryptHasher
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&entity.User{}))

	issuer, err := jwtmw.NewIssuer("router-test-secret")
	require.NoError(t, err)
	hasher := password.NewBcryptHasher(bcrypt.MinCost)
	m := metrics.New(prometheus.NewRegistry())
	store := di.NewUserRepository(db, nil, 0, m)
	handlers := di.NewHandlers(store, issuer, hasher, m)

	return &testApp{
		router: NewRouter(Deps{Handlers: handlers, Verifier: issuer, Metrics: m}),
		store:  store,
		hasher: hasher,
	}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) register(t *testing.T, email string) (id, token string) {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/users/register", "", map[string]any{
		"fullName":     "Student " + email,
		"email":        email,
		"phone":        "+81-90-0000-0000",
		"password":     "secret1",
		"agreeToTerms": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Data struct {
			ID    string `json:"id"`
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data.ID, resp.Data.Token
}

func (a *testApp) adminToken(t *testing.T) string {
	t.Helper()
	uc := adminusecase.NewAdminUsecase(a.store, a.hasher)
	_, _, err := uc.ProvisionAdmin(context.Background(), adminusecase.ProvisionInput{
		Email: "root@example.com", Password: "adminpass", FullName: "Root",
	})
	require.NoError(t, err)

	w := a.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{
		"email": "root@example.com", "password": "adminpass",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func TestRouter_Health(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	assert.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/readyz", "", nil).Code)
}

func TestRouter_StudentFlow(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	id, token := app.register(t, "alice@example.com")

	w := app.do(t, http.MethodPost, "/api/users/login", "", map[string]string{
		"email": "ALICE@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodGet, "/api/users/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"alice@example.com"`)

	w = app.do(t, http.MethodPut, "/api/users/profile", token, map[string]string{"fullName": "Alice Liddell"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Alice Liddell")

	w = app.do(t, http.MethodGet, "/api/users/"+id, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodPost, "/api/users/check-email", "", map[string]string{"email": "alice@example.com"})
	assert.JSONEq(t, `{"success":true,"exists":true}`, w.Body.String())
}

func TestRouter_Authorization(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	id, studentToken := app.register(t, "bob@example.com")
	otherID, _ := app.register(t, "dave@example.com")

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{"profile without token", http.MethodGet, "/api/users/profile", "", http.StatusUnauthorized},
		{"profile with garbage token", http.MethodGet, "/api/users/profile", "not.a.jwt", http.StatusUnauthorized},
		{"user lookup without token", http.MethodGet, "/api/users/" + id, "", http.StatusUnauthorized},
		{"own lookup as student", http.MethodGet, "/api/users/" + id, studentToken, http.StatusOK},
		{"other user lookup as student", http.MethodGet, "/api/users/" + otherID, studentToken, http.StatusForbidden},
		{"list users as student", http.MethodGet, "/api/users", studentToken, http.StatusForbidden},
		{"admin list as student", http.MethodGet, "/api/admin/users", studentToken, http.StatusForbidden},
		{"delete as student", http.MethodDelete, "/api/users/" + id, studentToken, http.StatusForbidden},
		{"list users without token", http.MethodGet, "/api/users", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(t, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

func TestRouter_AdminFlow(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	id, _ := app.register(t, "carol@example.com")
	token := app.adminToken(t)

	w := app.do(t, http.MethodGet, "/api/admin/users", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Users []struct {
			ID string `json:"id"`
		} `json:"users"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Users, 2)

	w = app.do(t, http.MethodDelete, "/api/users/"+id, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodGet, "/api/users/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	app.do(t, http.MethodPost, "/api/users/login", "", map[string]string{"email": "ghost@example.com", "password": "whatever"})

	w := app.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `marketplace_auth_events_total{event="login",outcome="failure"} 1`)
}
