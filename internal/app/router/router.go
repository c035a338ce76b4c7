// Package router はアプリケーションのHTTPルーティングを定義します。
package router

import (
	"github.com/gin-gonic/gin"

	"marketplace_backend/internal/app/di"
	"marketplace_backend/internal/feature/auth/domain/entity"
	jwtmw "marketplace_backend/internal/platform/jwt"
	platformhandler "marketplace_backend/internal/platform/http/handler"
	"marketplace_backend/internal/platform/metrics"
)

// Deps はルーター構築に必要な依存関係です。
type Deps struct {
	Handlers di.Handlers
	Verifier jwtmw.TokenVerifier
	// Metrics がnilの場合、計測ミドルウェアと /metrics は無効になります。
	Metrics *metrics.Metrics
	Ready   []platformhandler.Check
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.Default()

	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
		r.GET("/metrics", d.Metrics.Handler())
	}

	// 導通確認用
	r.GET("/healthz", platformhandler.Health)
	r.HEAD("/healthz", platformhandler.Health)
	r.GET("/readyz", platformhandler.Readiness(d.Ready...))

	authRequired := jwtmw.AuthRequired(d.Verifier)
	adminOnly := jwtmw.Authorize(entity.RoleAdmin.String())

	auth := d.Handlers.Auth
	admin := d.Handlers.Admin

	api := r.Group("/api")

	// 認証不要
	users := api.Group("/users")
	{
		users.POST("/register", auth.Register)
		users.POST("/login", auth.Login)
		users.POST("/check-email", auth.CheckEmail)
	}
	api.POST("/admin/login", auth.AdminLogin)

	// 認証必須のルート
	users.GET("/profile", authRequired, auth.Profile)
	users.PUT("/profile", authRequired, auth.UpdateProfile)
	users.GET("/:id", authRequired, admin.GetUser)

	// 管理者のみ
	users.GET("", authRequired, adminOnly, admin.ListUsers)
	users.DELETE("/:id", authRequired, adminOnly, admin.DeleteUser)
	api.GET("/admin/users", authRequired, adminOnly, admin.ListUsers)

	return r
}
