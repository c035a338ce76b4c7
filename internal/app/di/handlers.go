package di

import (
	adminhandler "marketplace_backend/internal/feature/admin/transport/handler"
	adminusecase "marketplace_backend/internal/feature/admin/usecase"
	authhandler "marketplace_backend/internal/feature/auth/transport/handler"
	authusecase "marketplace_backend/internal/feature/auth/usecase"
	"marketplace_backend/internal/platform/cache"
	jwtmw "marketplace_backend/internal/platform/jwt"
	"marketplace_backend/internal/platform/metrics"
	"marketplace_backend/internal/platform/password"
)

// Handlers groups the HTTP handlers of every feature.
type Handlers struct {
	Auth  *authhandler.AuthHandler
	Admin *adminhandler.AdminHandler
}

// NewHandlers wires use cases and handlers on top of a shared user store.
// m may be nil, in which case no auth events are recorded.
func NewHandlers(users cache.UserRepository, issuer *jwtmw.Issuer, hasher *password.BcryptHasher, m *metrics.Metrics) Handlers {
	var events authhandler.AuthEventRecorder
	if m != nil {
		events = m
	}
	authUC := authusecase.NewAuthUsecase(users, hasher, issuer)
	adminUC := adminusecase.NewAdminUsecase(users, hasher)

	return Handlers{
		Auth:  authhandler.NewAuthHandler(authUC, events),
		Admin: adminhandler.NewAdminHandler(adminUC),
	}
}
