package testsCommon

import (
	"context"

	"github.com/iulianpascalau/crosschain-analytics/services/analytics/common"
)

// LedgerStub -
type LedgerStub struct {
	AppendHandler   func(ctx context.Context, record common.TransactionRecord) error
	SnapshotHandler func(ctx context.Context) ([]common.TransactionRecord, error)
	ClearHandler    func(ctx context.Context) error
	LenHandler      func() int
	CloseHandler    func() error
}

// Append -
func (stub *LedgerStub) Append(ctx context.Context, record common.TransactionRecord) error {
	if stub.AppendHandler != nil {
		return stub.AppendHandler(ctx, record)
	}

	return nil
}

// Snapshot -
func (stub *LedgerStub) Snapshot(ctx context.Context) ([]common.TransactionRecord, error) {
	if stub.SnapshotHandler != nil {
		return stub.SnapshotHandler(ctx)
	}

	return make([]common.TransactionRecord, 0), nil
}

// Clear -
func (stub *LedgerStub) Clear(ctx context.Context) error {
	if stub.ClearHandler != nil {
		return stub.ClearHandler(ctx)
	}

	return nil
}

// Len -
func (stub *LedgerStub) Len() int {
	if stub.LenHandler != nil {
		return stub.LenHandler()
	}

	return 0
}

// Close -
func (stub *LedgerStub) Close() error {
	if stub.CloseHandler != nil {
		return stub.CloseHandler()
	}

	return nil
}

// IsInterfaceNil -
func (stub *LedgerStub) IsInterfaceNil() bool {
	return stub == nil
}
