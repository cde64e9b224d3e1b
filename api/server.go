// Package api exposes the exchange core over HTTP with gin. Callers are
// identified by the X-User-ID header; session issuance lives outside
// this service.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/quexa/spotmatch/internal/ledger"
	"github.com/quexa/spotmatch/internal/orders"
	"github.com/quexa/spotmatch/internal/ws"
)

// Server represents the API server.
type Server struct {
	router   *gin.Engine
	logger   *zap.Logger
	orders   *orders.Service
	accounts *ledger.AccountLedger
	assets   *ledger.AssetLedger
	hub      *ws.Hub
	validate *validator.Validate
}

// NewServer wires the HTTP layer around the order service and ledgers.
// The hub may be nil when WebSocket delivery is disabled.
func NewServer(logger *zap.Logger, orderService *orders.Service, accounts *ledger.AccountLedger, assets *ledger.AssetLedger, hub *ws.Hub) *Server {
	s := &Server{
		logger:   logger,
		orders:   orderService,
		accounts: accounts,
		assets:   assets,
		hub:      hub,
		validate: validator.New(),
	}

	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s.router = router
	s.registerRoutes()
	return s
}

// Router returns the gin engine, for http.Server wiring and tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/api/v1/health", s.healthCheck)

	authed := s.router.Group("/api/v1")
	authed.Use(s.requireUser())
	{
		authed.GET("/orders", s.listOrders)
		authed.POST("/orders", s.createOrder)
		authed.POST("/orders/:id/cancel", s.cancelOrder)
		authed.GET("/profile", s.getProfile)
		authed.GET("/ws", s.serveWS)
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
