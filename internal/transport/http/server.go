package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"sibyl/internal/logger"
	"sibyl/internal/pkg/circuit"
	"sibyl/internal/pkg/symbol"
	"sibyl/internal/store/model"
	"sibyl/internal/strategy"
)

// ExecutionSource exposes the audit trail to the status API.
type ExecutionSource interface {
	RecentExecutions(ctx context.Context, limit int) ([]model.ExecutionLogModel, error)
}

// Server is the operator surface: status, execution history, manual
// strategy stop and the breaker reset that re-arms trading after a fatal
// exchange error.
type Server struct {
	addr    string
	manager *strategy.Manager
	breaker *circuit.Breaker
	execs   ExecutionSource
}

func NewServer(addr string, manager *strategy.Manager, breaker *circuit.Breaker, execs ExecutionSource) *Server {
	return &Server{addr: addr, manager: manager, breaker: breaker, execs: execs}
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	api.GET("/status", s.handleStatus)
	api.GET("/executions", s.handleExecutions)
	api.POST("/breaker/reset", s.handleBreakerReset)
	api.POST("/strategies/:pair/stop", s.handleStrategyStop)
	return engine
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.routes()}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP 服务已启动: %s", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"breaker":    s.breaker.State().String(),
		"strategies": s.manager.Status(),
	})
}

func (s *Server) handleExecutions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := s.execs.RecentExecutions(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"executions": rows})
}

func (s *Server) handleBreakerReset(c *gin.Context) {
	s.breaker.Reset()
	logger.Infof("熔断器已由操作员重置")
	c.JSON(http.StatusOK, gin.H{"breaker": s.breaker.State().String()})
}

func (s *Server) handleStrategyStop(c *gin.Context) {
	// the path segment carries the wire form ("BTCUSDT"); the manager keys
	// runners by display pair.
	pair := symbol.Normalize(c.Param("pair"))
	if !s.manager.Deactivate(c.Request.Context(), pair) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active strategy for " + pair})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stopped": pair})
}
