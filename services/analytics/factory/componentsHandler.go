package factory

import (
	"fmt"

	"github.com/iulianpascalau/crosschain-analytics/services/analytics/api"
	"github.com/iulianpascalau/crosschain-analytics/services/analytics/config"
	"github.com/iulianpascalau/crosschain-analytics/services/analytics/ledger"
	"github.com/iulianpascalau/crosschain-analytics/services/analytics/metrics"
	"github.com/iulianpascalau/crosschain-analytics/services/analytics/notifier"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var log = logger.GetOrCreate("factory")

type componentsHandler struct {
	ledger api.Ledger
	hub    Hub
	server Server
}

// NewComponentsHandler creates a new components handler
func NewComponentsHandler(cfg config.Config) (*componentsHandler, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store, err := createLedger(cfg.Ledger, registry)
	if err != nil {
		return nil, err
	}

	server, hub, err := createServer(cfg, store, registry)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &componentsHandler{
		ledger: store,
		hub:    hub,
		server: server,
	}, nil
}

func createLedger(cfg config.LedgerConfig, registerer prometheus.Registerer) (api.Ledger, error) {
	args := ledger.ArgsLedger{
		Capacity:   cfg.Capacity,
		Registerer: registerer,
	}

	switch cfg.Backend {
	case "", config.BackendMemory:
		log.Debug("creating in-memory ledger", "capacity", cfg.Capacity)
		return ledger.NewMemoryLedger(args)
	case config.BackendSQLite:
		log.Debug("creating sqlite ledger", "capacity", cfg.Capacity, "path", cfg.SQLitePath)
		return ledger.NewSQLiteLedger(cfg.SQLitePath, args)
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}

func createServer(cfg config.Config, store api.Ledger, gatherer prometheus.Gatherer) (Server, Hub, error) {
	methods, err := cfg.Metrics.MethodSet()
	if err != nil {
		return nil, nil, err
	}
	location, err := cfg.Metrics.Location()
	if err != nil {
		return nil, nil, err
	}
	windows, err := cfg.Metrics.WindowSet()
	if err != nil {
		return nil, nil, err
	}

	agg, err := metrics.NewAggregator(metrics.ArgsAggregator{
		Methods:  methods,
		Location: location,
	})
	if err != nil {
		return nil, nil, err
	}

	hub := notifier.NewHub()
	serverArgs := api.ArgsWebServer{
		ListenAddress:  cfg.ListenAddress,
		StaticDir:      cfg.StaticDir,
		Ledger:         store,
		Aggregator:     agg,
		Windows:        windows,
		Notifier:       hub,
		Gatherer:       gatherer,
		GeneralHandler: api.CORSMiddleware,
	}

	server, err := api.NewServer(serverArgs)
	if err != nil {
		return nil, nil, err
	}

	return server, hub, nil
}

// GetLedger returns the ledger component
func (ch *componentsHandler) GetLedger() api.Ledger {
	return ch.ledger
}

// GetServer returns the server component
func (ch *componentsHandler) GetServer() Server {
	return ch.server
}

// Start starts the inner components
func (ch *componentsHandler) Start() {
	ch.server.Start()
}

// Close closes the inner components
func (ch *componentsHandler) Close() {
	err := ch.server.Close()
	log.LogIfError(err)

	_ = ch.hub.Close()

	err = ch.ledger.Close()
	log.LogIfError(err)
}
