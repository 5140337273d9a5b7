package factory

import (
	"context"
	"sync"
	"time"

	"github.com/iulianpascalau/crosschain-analytics/commonGo"
	"github.com/iulianpascalau/crosschain-analytics/services/watcher/config"
	"github.com/iulianpascalau/crosschain-analytics/services/watcher/engine"
	"github.com/iulianpascalau/crosschain-analytics/services/watcher/poller"
	"github.com/iulianpascalau/crosschain-analytics/services/watcher/reporter"
)

const minQueryInterval = time.Second

type componentsHandler struct {
	poller        Poller
	reporter      engine.Reporter
	engine        Engine
	mutCancel     sync.Mutex
	cancel        func()
	queryInterval time.Duration
}

// NewComponentsHandler creates a new components handler
func NewComponentsHandler(
	rpcURL string,
	cfg config.Config,
) (*componentsHandler, error) {
	poll, err := poller.NewRPCPoller(poller.ArgsRPCPoller{
		URL:             rpcURL,
		ContractAddress: cfg.ContractAddress,
		EventSignature:  cfg.EventSignature,
		Timeout:         time.Duration(cfg.RequestTimeoutInSeconds) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	rep, err := reporter.NewHTTPReporter(cfg.ReportEndpoint, time.Duration(cfg.ReportTimeoutInSeconds)*time.Second)
	if err != nil {
		poll.Close()
		return nil, err
	}

	eng, err := engine.NewWatcherEngine(engine.ArgsWatcherEngine{
		ChainID:       cfg.ChainID,
		StartBlock:    cfg.StartBlock,
		MaxBlockRange: cfg.MaxBlockRange,
		DedupCapacity: cfg.DedupCapacity,
		Poller:        poll,
		Reporter:      rep,
	})
	if err != nil {
		poll.Close()
		return nil, err
	}

	queryInterval := time.Duration(cfg.QueryIntervalInSeconds) * time.Second
	if queryInterval < minQueryInterval {
		queryInterval = minQueryInterval
	}

	return &componentsHandler{
		poller:        poll,
		reporter:      rep,
		engine:        eng,
		queryInterval: queryInterval,
	}, nil
}

// GetPoller returns the poller component
func (ch *componentsHandler) GetPoller() engine.Poller {
	return ch.poller
}

// GetReporter returns the reporter component
func (ch *componentsHandler) GetReporter() engine.Reporter {
	return ch.reporter
}

// GetEngine returns the engine component
func (ch *componentsHandler) GetEngine() Engine {
	return ch.engine
}

// Start starts the inner components
func (ch *componentsHandler) Start() {
	ch.mutCancel.Lock()
	defer ch.mutCancel.Unlock()

	if ch.cancel != nil {
		return
	}

	var ctx context.Context
	ctx, ch.cancel = context.WithCancel(context.Background())

	commonGo.CronJobStarter(ctx, ch.engine.Process, ch.queryInterval)
}

// Close closes the inner components
func (ch *componentsHandler) Close() {
	ch.mutCancel.Lock()
	defer ch.mutCancel.Unlock()

	if ch.cancel != nil {
		ch.cancel()
		ch.cancel = nil
	}

	ch.poller.Close()
}
