package main

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"finboard/models"
	"finboard/pkg/apperr"
	"finboard/pkg/auth"
	"finboard/pkg/balance"
	"finboard/pkg/cascade"
	"finboard/pkg/config"
	"finboard/pkg/logging"
	"finboard/pkg/ratelimit"
	"finboard/pkg/store"
	"finboard/pkg/token"

	"github.com/gin-gonic/gin"
)

const apiVersion = "1.0.0"

// server holds the dependencies shared by every handler.
type server struct {
	cfg      *config.Config
	store    store.Store
	auth     *auth.Service
	balances *balance.Calculator
	cascade  *cascade.Coordinator
	limiter  *ratelimit.Limiter
	logger   *slog.Logger
	now      func() time.Time
}

func newServer(cfg *config.Config, st store.Store, counters ratelimit.Store, logger *slog.Logger) *server {
	tokens := token.NewService(cfg.JWTSecret, cfg.JWTExpiresIn)
	limits := ratelimit.Config{
		Window: cfg.RateLimitWindow,
		Limits: map[ratelimit.Class]int{
			ratelimit.General: cfg.RateLimitGeneral,
			ratelimit.Create:  cfg.RateLimitCreate,
			ratelimit.Auth:    cfg.RateLimitAuth,
		},
	}
	return &server{
		cfg:      cfg,
		store:    st,
		auth:     auth.NewService(st, tokens),
		balances: balance.NewCalculator(st),
		cascade:  cascade.NewCoordinator(st, logger.With(logging.FieldComponent, "cascade")),
		limiter:  ratelimit.NewLimiter(counters, limits, logger.With(logging.FieldComponent, "ratelimit")),
		logger:   logger,
		now:      time.Now,
	}
}

// router builds the engine with the middleware chain and every route.
func (s *server) router() *gin.Engine {
	r := gin.New()
	// client IPs key the rate limits; forwarded headers count only from listed proxies
	if err := r.SetTrustedProxies(s.cfg.TrustedProxies); err != nil {
		s.logger.Error("invalid trusted proxies, trusting none", logging.FieldError, err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(
		gin.CustomRecovery(s.recovered),
		logging.RequestID(),
		logging.AccessLog(s.logger),
		securityHeaders(),
		cors(s.cfg.CORSOrigins),
		s.limit(ratelimit.General),
	)
	r.NoRoute(func(c *gin.Context) {
		s.respondError(c, apperr.NotFound("route "+c.Request.Method+" "+c.Request.URL.Path+" not found"))
	})
	setupRoutes(r, s)
	return r
}

func setupRoutes(r *gin.Engine, s *server) {
	r.GET("/", s.infoHandler)
	r.GET("/health", s.healthHandler)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", s.limit(ratelimit.Auth), s.registerHandler)
	authGroup.POST("/login", s.limit(ratelimit.Auth), s.loginHandler)
	authGroup.GET("/me", s.withIdentity(s.meHandler))
	authGroup.DELETE("/me", s.withIdentity(s.deleteMeHandler))

	tasks := api.Group("/tasks")
	tasks.GET("", s.withIdentity(s.listTasksHandler))
	tasks.GET("/:id", s.withIdentity(s.getTaskHandler))
	tasks.POST("", s.limit(ratelimit.Create), s.withIdentity(s.createTaskHandler))
	tasks.PUT("/:id", s.withIdentity(s.updateTaskHandler))
	tasks.DELETE("/:id", s.withIdentity(s.deleteTaskHandler))
	tasks.PATCH("/:id/toggle", s.withIdentity(s.toggleTaskHandler))

	accounts := api.Group("/accounts")
	accounts.GET("/stats", s.withIdentity(s.accountStatsHandler))
	accounts.GET("", s.withIdentity(s.listAccountsHandler))
	accounts.GET("/:id", s.withIdentity(s.getAccountHandler))
	accounts.POST("", s.limit(ratelimit.Create), s.withIdentity(s.createAccountHandler))
	accounts.PUT("/:id", s.withIdentity(s.updateAccountHandler))
	accounts.DELETE("/:id", s.withIdentity(s.deleteAccountHandler))

	expenses := api.Group("/expenses")
	expenses.GET("", s.withIdentity(s.listExpensesHandler))
	expenses.GET("/:id", s.withIdentity(s.getExpenseHandler))
	expenses.GET("/:id/image", s.withIdentityOrQueryToken(s.expenseImageHandler))
	expenses.POST("", s.limit(ratelimit.Create), s.withIdentity(s.createExpenseHandler))
	expenses.PUT("/:id", s.withIdentity(s.updateExpenseHandler))
	expenses.DELETE("/:id", s.withIdentity(s.deleteExpenseHandler))
}

// identityHandler is a handler that runs only for an authenticated caller.
type identityHandler func(c *gin.Context, id auth.Identity)

// withIdentity resolves the bearer token and hands the identity to h.
func (s *server) withIdentity(h identityHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, _ := auth.BearerToken(c.GetHeader("Authorization"))
		s.authenticate(c, raw, h)
	}
}

// withIdentityOrQueryToken also accepts ?token= for clients that load the
// resource through an <img> tag.
func (s *server) withIdentityOrQueryToken(h identityHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			raw = c.Query("token")
		}
		s.authenticate(c, raw, h)
	}
}

func (s *server) authenticate(c *gin.Context, raw string, h identityHandler) {
	id, err := s.auth.Authenticate(c.Request.Context(), raw)
	if err != nil {
		s.respondError(c, err)
		return
	}
	h(c, id)
}

// limit applies the limiter for one class and answers 429 in the API error shape.
func (s *server) limit(class ratelimit.Class) gin.HandlerFunc {
	return s.limiter.Middleware(class, func(c *gin.Context, _ ratelimit.Decision) {
		msg := "too many requests, please try again later"
		if class == ratelimit.Auth {
			msg = "too many authentication attempts, please try again later"
		}
		s.respondError(c, apperr.RateLimited(msg))
	})
}

// respondError writes the error envelope. Internal errors are logged with
// their cause; callers only see the cause outside production.
func (s *server) respondError(c *gin.Context, err error) {
	if apperr.KindOf(err) == apperr.KindInternal {
		_ = c.Error(err)
		s.logger.ErrorContext(c.Request.Context(), "request failed",
			logging.FieldRequestID, logging.GetRequestID(c),
			logging.FieldError, err)
	}
	status, body := apperr.Response(err, !s.cfg.IsProduction())
	c.AbortWithStatusJSON(status, body)
}

func (s *server) recovered(c *gin.Context, rec any) {
	s.respondError(c, apperr.Internal(errors.New("panic recovered")))
	s.logger.ErrorContext(c.Request.Context(), "panic", "recovered", rec, logging.FieldRequestID, logging.GetRequestID(c))
}

// storeError maps store sentinels onto the API taxonomy.
func storeError(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound(notFound)
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	return apperr.Internal(err)
}

// pathID returns the :id parameter. Malformed ids never reach the store.
func pathID(c *gin.Context, what string) (string, error) {
	id := c.Param("id")
	if !models.ValidID(id) {
		return "", apperr.Validation(msgInvalidInput, apperr.FieldError{Field: "id", Message: "invalid " + what + " id"})
	}
	return id, nil
}

// ensureAccount checks that accountID belongs to the caller.
func (s *server) ensureAccount(c *gin.Context, userID string, accountID *string) error {
	if accountID == nil {
		return nil
	}
	_, err := s.store.GetAccount(c.Request.Context(), userID, *accountID)
	return storeError(err, msgAccountNotFound)
}

type messageResponse struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message"`
}

func (s *server) infoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "finboard API",
		"version": apiVersion,
		"endpoints": gin.H{
			"auth":     "/api/auth",
			"tasks":    "/api/tasks",
			"accounts": "/api/accounts",
			"expenses": "/api/expenses",
			"health":   "/health",
		},
	})
}

func (s *server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": s.now().UTC().Format(time.RFC3339Nano)})
}
