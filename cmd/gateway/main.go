// Command gateway wires the trade engine's pre-trade risk pipeline into an
// HTTP surface: signal ingestion, an authenticated kill-switch control
// plane, health, Prometheus metrics, and a live audit event stream.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"tradecore/audit"
	"tradecore/auth"
	"tradecore/broker"
	"tradecore/config"
	"tradecore/killswitch"
	"tradecore/logger"
	"tradecore/metrics"
	"tradecore/pipeline"
	"tradecore/portfolio"
	"tradecore/risk"
	"tradecore/risklimits"
	"tradecore/router"
	"tradecore/signal"
	"tradecore/throttle"
)

func main() {
	cfg, err := config.Load(os.Getenv("TRADECORE_CONFIG_FILE"))
	if err != nil {
		logger.Errorf("gateway: config load failed: %v", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.LogLevel)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})

	ks := killswitch.New(killswitch.NewRedisStore(redisClient))
	throttleChecker := throttle.NewChecker(throttle.NewRedisStore(redisClient))
	portfolioClient := portfolio.NewHTTPClient(cfg.PortfolioServiceURL)
	riskEngine := risk.NewEngine(portfolioClient, throttleChecker)
	limits, err := risklimits.Load("")
	if err != nil {
		logger.Errorf("gateway: risk limits load failed: %v", err)
		os.Exit(1)
	}

	paperBroker := broker.NewPaperBroker(cfg.PaperBrokerSlippageBps)
	equityRouter := router.NewEquityRouter(paperBroker)

	ndjsonSink, ndjsonFile, err := audit.NewNDJSONFileSink(cfg.AuditNDJSONPath)
	if err != nil {
		logger.Errorf("gateway: audit ndjson sink init failed: %v", err)
		os.Exit(1)
	}
	defer ndjsonFile.Close()

	sqliteSink, err := audit.NewSQLiteSink(cfg.AuditSQLitePath)
	if err != nil {
		logger.Errorf("gateway: audit sqlite sink init failed: %v", err)
		os.Exit(1)
	}
	defer sqliteSink.Close()

	wsSink := audit.NewWebSocketSink()
	auditSink := audit.NewMultiSink(ndjsonSink, sqliteSink, wsSink)

	pl := pipeline.New(ks, riskEngine, equityRouter, auditSink, limits)

	jwtManager, err := auth.NewJWTManager([]byte(cfg.JWTSecret), time.Hour)
	if err != nil {
		logger.Errorf("gateway: jwt manager init failed: %v", err)
		os.Exit(1)
	}

	srv := newServer(pl, ks, wsSink, jwtManager, cfg)

	httpServer := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.HTTPPort),
		Handler: srv,
	}

	go func() {
		logger.Infof("gateway: listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("gateway: server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
}

// server bundles the gateway's collaborators behind the gin router.
type server struct {
	engine     *gin.Engine
	pipeline   *pipeline.Pipeline
	killSwitch *killswitch.KillSwitch
	wsSink     *audit.WebSocketSink
	jwt        *auth.JWTManager
	cfg        config.Config
}

func newServer(pl *pipeline.Pipeline, ks *killswitch.KillSwitch, wsSink *audit.WebSocketSink, jwtManager *auth.JWTManager, cfg config.Config) *server {
	s := &server{pipeline: pl, killSwitch: ks, wsSink: wsSink, jwt: jwtManager, cfg: cfg}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	r.GET("/audit/stream", s.handleAuditStream)
	r.POST("/signals", s.handleIngestSignal)

	admin := r.Group("/admin", s.requireBearerToken)
	admin.GET("/kill-switch", s.handleKillSwitchStatus)
	admin.POST("/kill-switch/activate", s.requireTOTP, s.handleKillSwitchActivate)
	admin.POST("/kill-switch/deactivate", s.requireTOTP, s.handleKillSwitchDeactivate)

	s.engine = r
	return s
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *server) handleAuditStream(c *gin.Context) {
	s.wsSink.HandleWebSocket(c.Writer, c.Request)
}

type signalRequest struct {
	StrategyID     string  `json:"strategy_id" binding:"required"`
	Symbol         string  `json:"symbol" binding:"required"`
	Side           string  `json:"side" binding:"required"`
	Confidence     float64 `json:"confidence"`
	TargetExposure float64 `json:"target_exposure" binding:"required"`
	TimeHorizon    string  `json:"time_horizon" binding:"required"`
	Constraints    struct {
		MaxSlippageBps int      `json:"max_slippage_bps"`
		MaxNotional    *float64 `json:"max_notional,omitempty"`
	} `json:"constraints"`
}

func (s *server) handleIngestSignal(c *gin.Context) {
	var req signalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sig, err := signal.New(
		req.StrategyID, req.Symbol, signal.Side(req.Side),
		req.Confidence, req.TargetExposure, signal.TimeHorizon(req.TimeHorizon),
		signal.Constraints{MaxSlippageBps: req.Constraints.MaxSlippageBps, MaxNotional: req.Constraints.MaxNotional},
	)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := s.pipeline.ProcessSignal(c.Request.Context(), sig, time.Now())
	status := http.StatusOK
	if resp.Status == pipeline.Rejected {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{
		"signal_id": resp.SignalID,
		"order_id":  resp.OrderID,
		"status":    resp.Status,
		"message":   resp.Message,
		"errors":    resp.Errors,
	})
}

func (s *server) requireBearerToken(c *gin.Context) {
	token, err := auth.ExtractBearerToken(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set("operator", claims.Subject)
}

func (s *server) requireTOTP(c *gin.Context) {
	code := c.GetHeader("X-TOTP-Code")
	if err := auth.VerifyTOTP(s.cfg.KillSwitchTOTPSecret, code); err != nil {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid totp code"})
		return
	}
}

func (s *server) handleKillSwitchStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.killSwitch.Status(c.Request.Context()))
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (s *server) handleKillSwitchActivate(c *gin.Context) {
	var req reasonRequest
	_ = c.ShouldBindJSON(&req)
	if err := s.killSwitch.Activate(c.Request.Context(), req.Reason, time.Now()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	metrics.KillSwitchActive.Set(1)
	c.JSON(http.StatusOK, gin.H{"message": "kill switch activated"})
}

func (s *server) handleKillSwitchDeactivate(c *gin.Context) {
	var req reasonRequest
	_ = c.ShouldBindJSON(&req)
	if err := s.killSwitch.Deactivate(c.Request.Context(), req.Reason, time.Now()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	metrics.KillSwitchActive.Set(0)
	c.JSON(http.StatusOK, gin.H{"message": "kill switch deactivated"})
}
