package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/iulianpascalau/crosschain-analytics/services/analytics/common"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultCapacity is the maximum number of records held when no capacity is configured
const DefaultCapacity = 100

var log = logger.GetOrCreate("ledger")

// ArgsLedger holds the arguments needed to create a ledger
type ArgsLedger struct {
	Capacity   int
	Registerer prometheus.Registerer
}

// memoryLedger is a bounded, append-only, slice backed record log with FIFO eviction
type memoryLedger struct {
	mut      sync.RWMutex
	records  []common.TransactionRecord
	capacity int
	inst     *instrumentation
}

// NewMemoryLedger creates an empty in-memory ledger. A zero capacity means DefaultCapacity
func NewMemoryLedger(args ArgsLedger) (*memoryLedger, error) {
	capacity, err := resolveCapacity(args.Capacity)
	if err != nil {
		return nil, err
	}

	inst, err := newInstrumentation(args.Registerer, "memory")
	if err != nil {
		return nil, fmt.Errorf("failed to register ledger collectors: %w", err)
	}

	return &memoryLedger{
		records:  make([]common.TransactionRecord, 0, capacity),
		capacity: capacity,
		inst:     inst,
	}, nil
}

func resolveCapacity(capacity int) (int, error) {
	if capacity == 0 {
		return DefaultCapacity, nil
	}
	if capacity < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}

	return capacity, nil
}

// Append adds the record at the end of the ledger, evicting the oldest records above capacity
func (ml *memoryLedger) Append(_ context.Context, record common.TransactionRecord) error {
	err := checkRecord(record)
	if err != nil {
		ml.inst.recordRejected()
		return err
	}

	ml.mut.Lock()
	defer ml.mut.Unlock()

	ml.records = append(ml.records, copyRecord(record))

	evicted := len(ml.records) - ml.capacity
	if evicted > 0 {
		// shift in place so the backing array never grows past capacity+1
		copy(ml.records, ml.records[evicted:])
		ml.records = ml.records[:ml.capacity]
		log.Trace("evicted records", "num", evicted)
	} else {
		evicted = 0
	}

	ml.inst.recordAppend(record.Method, evicted, len(ml.records))

	return nil
}

// Snapshot returns a copy of the records in insertion order
func (ml *memoryLedger) Snapshot(_ context.Context) ([]common.TransactionRecord, error) {
	ml.mut.RLock()
	defer ml.mut.RUnlock()

	result := make([]common.TransactionRecord, 0, len(ml.records))
	for _, record := range ml.records {
		result = append(result, copyRecord(record))
	}

	return result, nil
}

// Clear removes all records
func (ml *memoryLedger) Clear(_ context.Context) error {
	ml.mut.Lock()
	ml.records = ml.records[:0]
	ml.mut.Unlock()

	ml.inst.recordClear()

	return nil
}

// Len returns the current number of records
func (ml *memoryLedger) Len() int {
	ml.mut.RLock()
	defer ml.mut.RUnlock()

	return len(ml.records)
}

// Capacity returns the maximum number of records
func (ml *memoryLedger) Capacity() int {
	return ml.capacity
}

// Close does nothing for the memory ledger
func (ml *memoryLedger) Close() error {
	return nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (ml *memoryLedger) IsInterfaceNil() bool {
	return ml == nil
}
