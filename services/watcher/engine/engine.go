package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	analytics "github.com/iulianpascalau/crosschain-analytics/services/analytics/common"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

const (
	defaultDedupCapacity = 1000
	pollTimeout          = 30 * time.Second
	reportTimeout        = 10 * time.Second
)

var log = logger.GetOrCreate("engine")

// ArgsWatcherEngine holds the arguments needed to create a watcher engine
type ArgsWatcherEngine struct {
	ChainID       uint64
	StartBlock    uint64
	MaxBlockRange uint64
	DedupCapacity int
	Poller        Poller
	Reporter      Reporter
	NowFunc       func() time.Time
}

// watcherEngine turns new contract logs into transaction records, one block range per Process call
type watcherEngine struct {
	chainID       uint64
	startBlock    uint64
	maxBlockRange uint64
	poller        Poller
	reporter      Reporter
	nowFunc       func() time.Time

	mut         sync.Mutex
	initialized bool
	cursor      uint64
	seen        *seenSet
}

// NewWatcherEngine creates a new engine instance
func NewWatcherEngine(args ArgsWatcherEngine) (*watcherEngine, error) {
	if check.IfNil(args.Poller) {
		return nil, errors.New("nil poller")
	}
	if check.IfNil(args.Reporter) {
		return nil, errors.New("nil reporter")
	}
	if args.ChainID == 0 {
		return nil, errors.New("zero chain ID")
	}

	dedupCapacity := args.DedupCapacity
	if dedupCapacity <= 0 {
		dedupCapacity = defaultDedupCapacity
	}
	nowFunc := args.NowFunc
	if nowFunc == nil {
		nowFunc = time.Now
	}

	return &watcherEngine{
		chainID:       args.ChainID,
		startBlock:    args.StartBlock,
		maxBlockRange: args.MaxBlockRange,
		poller:        args.Poller,
		reporter:      args.Reporter,
		nowFunc:       nowFunc,
		seen:          newSeenSet(dedupCapacity),
	}, nil
}

// Process fetches the logs from the cursor up to the chain head and reports the new ones.
// The cursor moves only after the report succeeded, so a failed tick is retried on the next call
func (e *watcherEngine) Process(ctx context.Context) {
	e.mut.Lock()
	defer e.mut.Unlock()

	pollCtx, cancelPoll := context.WithTimeout(ctx, pollTimeout)
	defer cancelPoll()

	head, err := e.poller.BlockNumber(pollCtx)
	if err != nil {
		log.Warn("failed to read the chain head", "error", err)
		return
	}

	if !e.initialized {
		e.cursor = e.startBlock
		if e.startBlock == 0 {
			e.cursor = head
		}
		e.initialized = true
		log.Info("watcher cursor initialized", "block", e.cursor, "head", head)
	}

	if e.cursor > head {
		log.Trace("no new blocks", "cursor", e.cursor, "head", head)
		return
	}

	toBlock := head
	if e.maxBlockRange > 0 && toBlock-e.cursor+1 > e.maxBlockRange {
		toBlock = e.cursor + e.maxBlockRange - 1
	}

	logs, err := e.poller.FetchLogs(pollCtx, e.cursor, toBlock)
	if err != nil {
		log.Warn("failed to fetch logs", "from", e.cursor, "to", toBlock, "error", err)
		return
	}

	observedAt := e.nowFunc().UnixMilli()
	records := make([]analytics.TransactionRecord, 0, len(logs))
	keys := make([]string, 0, len(logs))
	batch := make(map[string]struct{}, len(logs))
	for _, eventLog := range logs {
		if eventLog.Removed {
			log.Debug("skipping removed log", "tx", eventLog.TxHash, "block", eventLog.BlockNumber)
			continue
		}

		key := eventLog.Key()
		_, inBatch := batch[key]
		if inBatch || e.seen.has(key) {
			continue
		}
		batch[key] = struct{}{}
		keys = append(keys, key)

		records = append(records, analytics.TransactionRecord{
			Timestamp:       observedAt,
			ChainID:         e.chainID,
			Method:          analytics.MethodEvent,
			Success:         true,
			BlockNumber:     eventLog.BlockNumber,
			TransactionHash: eventLog.TxHash,
		})
	}

	if len(records) > 0 {
		reportCtx, cancelReport := context.WithTimeout(ctx, reportTimeout)
		defer cancelReport()

		err = e.reporter.Report(reportCtx, records)
		if err != nil {
			log.Warn("failed to report records, the range will be fetched again", "from", e.cursor, "to", toBlock,
				"records", len(records), "error", err)
			return
		}
	}

	for _, key := range keys {
		e.seen.add(key)
	}

	log.Debug("processed block range", "from", e.cursor, "to", toBlock, "logs", len(logs), "reported", len(records))
	e.cursor = toBlock + 1
}

// Cursor returns the next block to be fetched
func (e *watcherEngine) Cursor() uint64 {
	e.mut.Lock()
	defer e.mut.Unlock()

	return e.cursor
}

// IsInterfaceNil returns true if the value under the interface is nil
func (e *watcherEngine) IsInterfaceNil() bool {
	return e == nil
}
