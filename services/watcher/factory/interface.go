package factory

import (
	"context"

	"github.com/iulianpascalau/crosschain-analytics/services/watcher/engine"
)

// Engine defines the watcher's operations
type Engine interface {
	Process(ctx context.Context)
	Cursor() uint64
	IsInterfaceNil() bool
}

// Poller is the chain poller owned by the components handler
type Poller interface {
	engine.Poller
	Close()
}
