package api

import (
	"context"

	"github.com/iulianpascalau/crosschain-analytics/services/analytics/common"
	"github.com/iulianpascalau/crosschain-analytics/services/analytics/metrics"
	"github.com/iulianpascalau/crosschain-analytics/services/analytics/notifier"
)

// Ledger defines the bounded, append-only record store
type Ledger interface {
	// Append adds the record at the end, evicting the oldest records above capacity
	Append(ctx context.Context, record common.TransactionRecord) error

	// Snapshot returns a copy of the records in insertion order
	Snapshot(ctx context.Context) ([]common.TransactionRecord, error)

	// Clear removes all records
	Clear(ctx context.Context) error

	// Len returns the current number of records
	Len() int

	// Close releases the backend resources
	Close() error

	IsInterfaceNil() bool
}

// Aggregator derives metrics from a ledger snapshot
type Aggregator interface {
	Query(records []common.TransactionRecord, window metrics.TimeWindow, nowMs int64) common.MetricsSnapshot
	IsInterfaceNil() bool
}

// Notifier pushes ledger change notifications to live subscribers
type Notifier interface {
	Register(subscriber notifier.Subscriber)
	Unregister(subscriber notifier.Subscriber)
	Notify(event string, size int)
	IsInterfaceNil() bool
}
