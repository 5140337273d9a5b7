package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/iulianpascalau/crosschain-analytics/services/analytics/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLedger interface {
	Append(ctx context.Context, record common.TransactionRecord) error
	Snapshot(ctx context.Context) ([]common.TransactionRecord, error)
	Clear(ctx context.Context) error
	Len() int
	Capacity() int
	Close() error
}

type ledgerConstructor func(t *testing.T, args ArgsLedger) testLedger

func backends() map[string]ledgerConstructor {
	return map[string]ledgerConstructor{
		"memory": func(t *testing.T, args ArgsLedger) testLedger {
			l, err := NewMemoryLedger(args)
			require.NoError(t, err)
			return l
		},
		"sqlite": func(t *testing.T, args ArgsLedger) testLedger {
			l, err := NewSQLiteLedger(":memory:", args)
			require.NoError(t, err)
			return l
		},
	}
}

func createRecord(index int) common.TransactionRecord {
	return common.TransactionRecord{
		Timestamp:       int64(1_700_000_000_000 + index),
		ChainID:         901,
		Method:          common.MethodIncrementer,
		Success:         true,
		BlockNumber:     uint64(index),
		TransactionHash: fmt.Sprintf("0x%064x", index),
	}
}

func TestNewMemoryLedger(t *testing.T) {
	t.Parallel()

	t.Run("negative capacity should error", func(t *testing.T) {
		l, err := NewMemoryLedger(ArgsLedger{Capacity: -1})

		assert.Nil(t, l)
		assert.True(t, l.IsInterfaceNil())
		assert.True(t, errors.Is(err, ErrInvalidCapacity))
	})
	t.Run("zero capacity should use the default", func(t *testing.T) {
		l, err := NewMemoryLedger(ArgsLedger{})

		assert.Nil(t, err)
		assert.False(t, l.IsInterfaceNil())
		assert.Equal(t, DefaultCapacity, l.Capacity())
		assert.Equal(t, 0, l.Len())
	})
}

func TestLedger_BoundAndFIFOEviction(t *testing.T) {
	t.Parallel()

	for name, constructor := range backends() {
		constructor := constructor
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			l := constructor(t, ArgsLedger{Capacity: 100})
			defer func() {
				_ = l.Close()
			}()

			ctx := context.Background()
			for i := 0; i < 101; i++ {
				err := l.Append(ctx, createRecord(i))
				require.NoError(t, err)
				require.LessOrEqual(t, l.Len(), 100)
			}

			snapshot, err := l.Snapshot(ctx)
			require.NoError(t, err)
			require.Len(t, snapshot, 100)
			assert.Equal(t, createRecord(1), snapshot[0])
			assert.Equal(t, createRecord(100), snapshot[99])
		})
	}
}

func TestLedger_EvictionIgnoresTimestamps(t *testing.T) {
	t.Parallel()

	for name, constructor := range backends() {
		constructor := constructor
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			l := constructor(t, ArgsLedger{Capacity: 2})
			defer func() {
				_ = l.Close()
			}()

			ctx := context.Background()
			newest := createRecord(0)
			newest.Timestamp = 5_000
			oldest := createRecord(1)
			oldest.Timestamp = 1_000
			middle := createRecord(2)
			middle.Timestamp = 3_000

			require.NoError(t, l.Append(ctx, newest))
			require.NoError(t, l.Append(ctx, oldest))
			require.NoError(t, l.Append(ctx, middle))

			snapshot, err := l.Snapshot(ctx)
			require.NoError(t, err)
			assert.Equal(t, []common.TransactionRecord{oldest, middle}, snapshot)
		})
	}
}

func TestLedger_InvalidRecords(t *testing.T) {
	t.Parallel()

	for name, constructor := range backends() {
		constructor := constructor
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			l := constructor(t, ArgsLedger{})
			defer func() {
				_ = l.Close()
			}()

			ctx := context.Background()

			noTimestamp := createRecord(1)
			noTimestamp.Timestamp = 0
			err := l.Append(ctx, noTimestamp)
			assert.True(t, errors.Is(err, ErrInvalidRecord))

			noChain := createRecord(1)
			noChain.ChainID = 0
			err = l.Append(ctx, noChain)
			assert.True(t, errors.Is(err, ErrInvalidRecord))

			badMethod := createRecord(1)
			badMethod.Method = "bridge"
			err = l.Append(ctx, badMethod)
			assert.True(t, errors.Is(err, ErrInvalidRecord))
			assert.Contains(t, err.Error(), "bridge")

			assert.Equal(t, 0, l.Len())
		})
	}
}

func TestLedger_OptionalFieldsAndDuplicates(t *testing.T) {
	t.Parallel()

	for name, constructor := range backends() {
		constructor := constructor
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			l := constructor(t, ArgsLedger{})
			defer func() {
				_ = l.Close()
			}()

			ctx := context.Background()
			gasUsed := uint64(21000)
			record := createRecord(7)
			record.GasUsed = &gasUsed
			record.Success = false

			require.NoError(t, l.Append(ctx, record))
			require.NoError(t, l.Append(ctx, record))

			snapshot, err := l.Snapshot(ctx)
			require.NoError(t, err)
			require.Len(t, snapshot, 2)
			assert.Equal(t, record, snapshot[0])
			assert.Equal(t, record, snapshot[1])
			require.NotNil(t, snapshot[0].GasUsed)
			assert.Equal(t, uint64(21000), *snapshot[0].GasUsed)
		})
	}
}

func TestLedger_SnapshotIsACopy(t *testing.T) {
	t.Parallel()

	for name, constructor := range backends() {
		constructor := constructor
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			l := constructor(t, ArgsLedger{})
			defer func() {
				_ = l.Close()
			}()

			ctx := context.Background()
			gasUsed := uint64(10)
			record := createRecord(1)
			record.GasUsed = &gasUsed
			require.NoError(t, l.Append(ctx, record))

			gasUsed = 99
			first, err := l.Snapshot(ctx)
			require.NoError(t, err)
			first[0].ChainID = 1
			*first[0].GasUsed = 50

			second, err := l.Snapshot(ctx)
			require.NoError(t, err)
			assert.Equal(t, uint64(901), second[0].ChainID)
			assert.Equal(t, uint64(10), *second[0].GasUsed)
		})
	}
}

func TestLedger_Clear(t *testing.T) {
	t.Parallel()

	for name, constructor := range backends() {
		constructor := constructor
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			l := constructor(t, ArgsLedger{Capacity: 3})
			defer func() {
				_ = l.Close()
			}()

			ctx := context.Background()
			for i := 0; i < 5; i++ {
				require.NoError(t, l.Append(ctx, createRecord(i)))
			}

			require.NoError(t, l.Clear(ctx))
			assert.Equal(t, 0, l.Len())
			require.NoError(t, l.Clear(ctx))

			snapshot, err := l.Snapshot(ctx)
			require.NoError(t, err)
			assert.Empty(t, snapshot)

			require.NoError(t, l.Append(ctx, createRecord(10)))
			snapshot, err = l.Snapshot(ctx)
			require.NoError(t, err)
			assert.Equal(t, []common.TransactionRecord{createRecord(10)}, snapshot)
		})
	}
}

func TestMemoryLedger_ConcurrentAppends(t *testing.T) {
	t.Parallel()

	l, err := NewMemoryLedger(ArgsLedger{Capacity: 50})
	require.NoError(t, err)

	ctx := context.Background()
	var wg sync.WaitGroup
	for producer := 0; producer < 8; producer++ {
		wg.Add(1)
		go func(producer int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = l.Append(ctx, createRecord(producer*1000+i))
				_, _ = l.Snapshot(ctx)
			}
		}(producer)
	}
	wg.Wait()

	assert.Equal(t, 50, l.Len())
}

func TestMemoryLedger_Instrumentation(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	l, err := NewMemoryLedger(ArgsLedger{Capacity: 2, Registerer: registry})
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Append(ctx, createRecord(i)))
	}
	direct := createRecord(3)
	direct.Method = common.MethodDirect
	require.NoError(t, l.Append(ctx, direct))
	_ = l.Append(ctx, common.TransactionRecord{})

	assert.Equal(t, float64(3), testutil.ToFloat64(l.inst.appended.WithLabelValues(string(common.MethodIncrementer))))
	assert.Equal(t, float64(1), testutil.ToFloat64(l.inst.appended.WithLabelValues(string(common.MethodDirect))))
	assert.Equal(t, float64(2), testutil.ToFloat64(l.inst.evicted))
	assert.Equal(t, float64(1), testutil.ToFloat64(l.inst.rejected))
	assert.Equal(t, float64(2), testutil.ToFloat64(l.inst.size))

	require.NoError(t, l.Clear(ctx))
	assert.Equal(t, float64(1), testutil.ToFloat64(l.inst.clears))
	assert.Equal(t, float64(0), testutil.ToFloat64(l.inst.size))

	// a second ledger on the same registry reuses the collectors
	other, err := NewMemoryLedger(ArgsLedger{Registerer: registry})
	require.NoError(t, err)
	require.NoError(t, other.Append(ctx, createRecord(1)))
	assert.Equal(t, float64(4), testutil.ToFloat64(l.inst.appended.WithLabelValues(string(common.MethodIncrementer))))
}
