package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"invite-redemption/internal/config"
	red "invite-redemption/internal/infra/redis"
	"invite-redemption/internal/usecase"
)

// Server exposes the redemption core over HTTP: the public redeem and
// entitlement endpoints, plus the admin provisioning surface.
type Server struct {
	redeemUC    usecase.RedemptionUseCase
	entUC       usecase.EntitlementUseCase
	provUC      usecase.ProvisionUseCase
	identityUC  usecase.IdentityUseCase
	auth        *AuthManager
	limiter     *red.RateLimiter
	adminAPIKey string
	rateLimit   int
	lockdown    bool
	log         *zerolog.Logger

	srv *http.Server
}

func NewServer(
	cfg *config.Config,
	redeemUC usecase.RedemptionUseCase,
	entUC usecase.EntitlementUseCase,
	provUC usecase.ProvisionUseCase,
	identityUC usecase.IdentityUseCase,
	limiter *red.RateLimiter,
	logger *zerolog.Logger,
) *Server {
	s := &Server{
		redeemUC:    redeemUC,
		entUC:       entUC,
		provUC:      provUC,
		identityUC:  identityUC,
		auth:        NewAuthManager(cfg.Server.SessionSecret, !cfg.Runtime.Dev, cfg.Server.SessionTTL),
		limiter:     limiter,
		adminAPIKey: cfg.Server.AdminAPIKey,
		rateLimit:   cfg.RateLimit.RedeemPerMinute,
		lockdown:    cfg.Server.Lockdown,
		log:         logger,
	}
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: Chain(s.Router(), TraceID(), Recover(logger), RequestLog(logger), Timeout(cfg.Server.RequestTimeout)),
	}
	return s
}

// Router builds the route tree. Exposed separately so handler tests can mount
// it on httptest servers without the outer middleware chain.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/entitlement", s.handleEntitlement)

		r.Group(func(r chi.Router) {
			r.Use(Lockdown(s.lockdown))
			r.Post("/redeem", s.handleRedeem)

			r.Post("/admin/login", s.handleAdminLogin)
			r.Group(func(r chi.Router) {
				r.Use(s.auth.Guard)
				r.Post("/codes/sync", s.handleCodeSync)
				r.Post("/identities", s.handleRegisterIdentity)
			})
		})
	})

	return r
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.srv.Addr).Bool("lockdown", s.lockdown).Msg("http server listening")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// redeemWindow is the fixed window for the per-identity redeem limiter.
const redeemWindow = time.Minute
