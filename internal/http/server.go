// Package http serves the read-only status API. Mutations stay in the
// Telegram admin menu; this surface only reports state.
package http

import (
	"context"
	"errors"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/canalvip/vipbot/internal/freequeue"
	"github.com/canalvip/vipbot/internal/ledger"
)

// Server hosts the status API.
type Server struct {
	db     *gorm.DB
	ledger *ledger.Ledger
	queue  *freequeue.Queue
	token  string // optional static bearer token for /api routes.
}

// NewServer constructs a Server. token may be empty, which leaves the API
// open.
func NewServer(conn *gorm.DB, lg *ledger.Ledger, queue *freequeue.Queue, token string) *Server {
	return &Server{db: conn, ledger: lg, queue: queue, token: token}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", s.healthz)

	api := router.Group("/api")
	if s.token != "" {
		api.Use(BearerAuthMiddleware(s.token))
	}
	api.GET("/stats", s.stats)
	api.GET("/members", s.members)

	return router
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if s == nil {
		return errors.New("http: nil server")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	srv := &nethttp.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
			log.WithError(errShutdown).Warn("http: shutdown failed")
		}
	}()

	log.Infof("status API listening on %s", addr)
	if errServe := srv.ListenAndServe(); errServe != nil && !errors.Is(errServe, nethttp.ErrServerClosed) {
		return errServe
	}
	return nil
}
