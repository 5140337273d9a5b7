package engine

import (
	"context"

	analytics "github.com/iulianpascalau/crosschain-analytics/services/analytics/common"
	"github.com/iulianpascalau/crosschain-analytics/services/watcher/common"
)

// Poller defines the interface for reading the counter contract's logs
type Poller interface {
	// BlockNumber returns the current chain head
	BlockNumber(ctx context.Context) (uint64, error)

	// FetchLogs returns the contract logs in [fromBlock, toBlock], removed logs included
	FetchLogs(ctx context.Context, fromBlock uint64, toBlock uint64) ([]common.EventLog, error)

	IsInterfaceNil() bool
}

// Reporter defines the interface for pushing observed records to the analytics service
type Reporter interface {
	Report(ctx context.Context, records []analytics.TransactionRecord) error
	IsInterfaceNil() bool
}
