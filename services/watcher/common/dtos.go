package common

import (
	"fmt"
	"strings"
)

// EventLog is the part of a contract log the watcher needs to build a transaction record
type EventLog struct {
	Address     string
	BlockNumber uint64
	TxHash      string
	LogIndex    uint64
	Removed     bool
}

// Key identifies the log across polls
func (l EventLog) Key() string {
	return fmt.Sprintf("%s:%d", strings.ToLower(l.TxHash), l.LogIndex)
}
