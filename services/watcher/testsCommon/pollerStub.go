package testsCommon

import (
	"context"

	"github.com/iulianpascalau/crosschain-analytics/services/watcher/common"
)

// PollerStub -
type PollerStub struct {
	BlockNumberHandler func(ctx context.Context) (uint64, error)
	FetchLogsHandler   func(ctx context.Context, fromBlock uint64, toBlock uint64) ([]common.EventLog, error)
}

// BlockNumber -
func (stub *PollerStub) BlockNumber(ctx context.Context) (uint64, error) {
	if stub.BlockNumberHandler != nil {
		return stub.BlockNumberHandler(ctx)
	}

	return 0, nil
}

// FetchLogs -
func (stub *PollerStub) FetchLogs(ctx context.Context, fromBlock uint64, toBlock uint64) ([]common.EventLog, error) {
	if stub.FetchLogsHandler != nil {
		return stub.FetchLogsHandler(ctx, fromBlock, toBlock)
	}

	return make([]common.EventLog, 0), nil
}

// IsInterfaceNil -
func (stub *PollerStub) IsInterfaceNil() bool {
	return stub == nil
}
