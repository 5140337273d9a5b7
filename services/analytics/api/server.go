package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/iulianpascalau/crosschain-analytics/services/analytics/common"
	"github.com/iulianpascalau/crosschain-analytics/services/analytics/ledger"
	"github.com/iulianpascalau/crosschain-analytics/services/analytics/metrics"
	"github.com/iulianpascalau/crosschain-analytics/services/analytics/notifier"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultWindowName = "1h"

var log = logger.GetOrCreate("api")

type server struct {
	router         *gin.Engine
	httpServer     *http.Server
	ledger         Ledger
	aggregator     Aggregator
	windows        *metrics.WindowSet
	notifier       Notifier
	listenAddr     string
	staticDir      string
	generalHandler func(http.Handler) http.Handler
	nowFunc        func() time.Time
	upgrader       websocket.Upgrader
	wg             sync.WaitGroup
}

// ArgsWebServer defines the web server arguments
type ArgsWebServer struct {
	ListenAddress  string
	StaticDir      string
	Ledger         Ledger
	Aggregator     Aggregator
	Windows        *metrics.WindowSet
	Notifier       Notifier
	Gatherer       prometheus.Gatherer
	GeneralHandler func(http.Handler) http.Handler
	NowFunc        func() time.Time
}

// NewServer initializes the Gin engine and mounts all routes
func NewServer(args ArgsWebServer) (*server, error) {
	if check.IfNil(args.Ledger) {
		return nil, errors.New("ledger is required")
	}
	if check.IfNil(args.Aggregator) {
		return nil, errors.New("aggregator is required")
	}
	if check.IfNil(args.Notifier) {
		return nil, errors.New("notifier is required")
	}
	if args.Windows == nil {
		return nil, errors.New("window set is required")
	}
	if args.GeneralHandler == nil {
		return nil, errors.New("nil http handler")
	}

	nowFunc := args.NowFunc
	if nowFunc == nil {
		nowFunc = time.Now
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Recovery())

	s := &server{
		router:         router,
		ledger:         args.Ledger,
		aggregator:     args.Aggregator,
		windows:        args.Windows,
		notifier:       args.Notifier,
		listenAddr:     args.ListenAddress,
		staticDir:      args.StaticDir,
		generalHandler: args.GeneralHandler,
		nowFunc:        nowFunc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	s.setupRoutes(args.Gatherer)
	return s, nil
}

func (s *server) setupRoutes(gatherer prometheus.Gatherer) {
	api := s.router.Group("/api")
	{
		// producer interface
		api.POST("/transactions", s.handleAppend)

		// consumer interface
		api.GET("/transactions", s.handleGetTransactions)
		api.DELETE("/transactions", s.handleClear)
		api.GET("/metrics", s.handleGetMetrics)
		api.GET("/windows", s.handleGetWindows)
		api.GET("/ws", s.handleWebsocket)
	}

	if gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// Serve the dashboard build if configured
	if s.staticDir != "" {
		log.Info("serving static files", "dir", s.staticDir)
		s.router.Static("/static", path.Join(s.staticDir, "static"))
		s.router.StaticFile("/favicon.ico", path.Join(s.staticDir, "favicon.ico"))

		// NoRoute for SPA fallback
		s.router.NoRoute(func(c *gin.Context) {
			if strings.HasPrefix(c.Request.URL.Path, "/api") {
				c.JSON(http.StatusNotFound, gin.H{"error": "api route not found"})
				return
			}
			c.File(path.Join(s.staticDir, "index.html"))
		})
	}
}

// Start listens and serves connections
func (s *server) Start() {
	handler := s.generalHandler(s.router)

	s.httpServer = &http.Server{
		Addr:    s.listenAddr,
		Handler: handler,
	}

	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		log.Error("failed to listen", "error", err)
		return
	}
	s.listenAddr = ln.Addr().String()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info("starting HTTP server", "address", s.listenAddr)

		err := s.httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
		}
	}()
}

// Address returns the actual listen address
func (s *server) Address() string {
	return s.listenAddr
}

// Close gracefully stops the server. Hijacked websocket connections are closed by the notifier
func (s *server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}
	s.wg.Wait()

	return nil
}

// --- Handlers ---

func (s *server) handleAppend(c *gin.Context) {
	var payload common.RecordsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if len(payload.Records) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no records"})
		return
	}

	ctx := c.Request.Context()
	accepted, rejected := 0, 0
	for _, record := range payload.Records {
		err := s.ledger.Append(ctx, record)
		if err == nil {
			accepted++
			continue
		}
		if !errors.Is(err, ledger.ErrInvalidRecord) {
			log.Error("ledger append failed", "method", record.Method, "chain", record.ChainID,
				"hash", record.TransactionHash, "accepted", accepted, "error", err)
			s.notifyAppended(accepted)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "accepted": accepted, "rejected": rejected})
			return
		}

		log.Warn("rejected record", "method", record.Method, "chain", record.ChainID,
			"hash", record.TransactionHash, "error", err)
		rejected++
	}

	log.Debug("received records", "sender", c.Request.RemoteAddr, "accepted", accepted, "rejected", rejected)

	s.notifyAppended(accepted)

	c.JSON(http.StatusOK, gin.H{"accepted": accepted, "rejected": rejected})
}

func (s *server) notifyAppended(accepted int) {
	if accepted > 0 {
		s.notifier.Notify(notifier.EventAppended, s.ledger.Len())
	}
}

func (s *server) handleGetTransactions(c *gin.Context) {
	limit := -1
	limitStr := c.Query("limit")
	if limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
	}

	records, err := s.ledger.Snapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if limit >= 0 {
		records = metrics.Recent(records, limit)
	}

	c.JSON(http.StatusOK, common.RecordsPayload{Records: records})
}

func (s *server) handleClear(c *gin.Context) {
	err := s.ledger.Clear(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Info("ledger cleared", "sender", c.Request.RemoteAddr)
	s.notifier.Notify(notifier.EventCleared, 0)

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *server) handleGetMetrics(c *gin.Context) {
	window, err := s.windows.Get(c.DefaultQuery("window", defaultWindowName))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	nowMs := s.nowFunc().UnixMilli()
	nowStr := c.Query("now")
	if nowStr != "" {
		nowMs, err = strconv.ParseInt(nowStr, 10, 64)
		if err != nil || nowMs <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid now"})
			return
		}
	}

	records, err := s.ledger.Snapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, s.aggregator.Query(records, window, nowMs))
}

func (s *server) handleGetWindows(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"windows": s.windows.Names()})
}

func (s *server) handleWebsocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Debug("websocket upgrade failed", "error", err)
		return
	}

	client := notifier.NewWSClient(conn, 0)
	s.notifier.Register(client)
	defer s.notifier.Unregister(client)

	log.Debug("websocket subscriber connected", "remote", c.Request.RemoteAddr)
	client.ReadUntilClosed()
}
