package server

import (
	"context"
	"net/http"
	"time"

	"github.com/evacdesk/evacdesk/internal/auth"
	authdomain "github.com/evacdesk/evacdesk/internal/auth/domain"
	"github.com/evacdesk/evacdesk/internal/auth/session"
	"github.com/evacdesk/evacdesk/internal/bootstrap"
	"github.com/evacdesk/evacdesk/internal/config"
	"github.com/evacdesk/evacdesk/internal/identity"
	"github.com/evacdesk/evacdesk/internal/migration"
	"github.com/evacdesk/evacdesk/internal/onboarding"
	onboardingdomain "github.com/evacdesk/evacdesk/internal/onboarding/domain"
	"github.com/evacdesk/evacdesk/internal/organization"
	"github.com/evacdesk/evacdesk/internal/payment"
	emailprovider "github.com/evacdesk/evacdesk/internal/providers/email"
	"github.com/evacdesk/evacdesk/internal/token"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	identity.Module,
	token.Module,
	emailprovider.Module,
	organization.Module,
	payment.Module,
	auth.Module,
	onboarding.Module,
	migration.Module,
	bootstrap.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, log *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(RequestMetrics(newHTTPMetrics(reg)))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	log           *zap.Logger
	authsvc       authdomain.Service
	onboardingsvc onboardingdomain.Service
	sessions      *session.Manager

	loginLimiter  *ipRateLimiter
	forgotLimiter *ipRateLimiter
}

func NewServer(
	r *gin.Engine,
	cfg config.Config,
	log *zap.Logger,
	authsvc authdomain.Service,
	onboardingsvc onboardingdomain.Service,
	sessions *session.Manager,
) *Server {
	s := &Server{
		engine:        r,
		cfg:           cfg,
		log:           log.Named("server"),
		authsvc:       authsvc,
		onboardingsvc: onboardingsvc,
		sessions:      sessions,

		loginLimiter:  newIPRateLimiter(10, time.Minute),
		forgotLimiter: newIPRateLimiter(5, time.Minute),
	}

	s.registerAuthRoutes()
	s.registerOnboardingRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/api/auth")

	auth.POST("/login", s.rateLimit(s.loginLimiter), s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
	auth.POST("/forgot-password", s.rateLimit(s.forgotLimiter), s.ForgotPassword)
	auth.GET("/validate-reset-token", s.ValidateResetToken)
	auth.POST("/reset-password", s.ResetPassword)
	auth.POST("/accept-invite", s.AcceptInvite)
}

func (s *Server) registerOnboardingRoutes() {
	s.engine.POST("/api/onboarding", s.Onboarding)
}
