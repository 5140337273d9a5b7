package ledger

import (
	"fmt"

	"github.com/iulianpascalau/crosschain-analytics/services/analytics/common"
)

func checkRecord(record common.TransactionRecord) error {
	if record.Timestamp <= 0 {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidRecord)
	}
	if record.ChainID == 0 {
		return fmt.Errorf("%w: missing chain ID", ErrInvalidRecord)
	}
	if !record.Method.IsValid() {
		return fmt.Errorf("%w: unknown method %q", ErrInvalidRecord, record.Method)
	}

	return nil
}

func copyRecord(record common.TransactionRecord) common.TransactionRecord {
	if record.GasUsed != nil {
		gasUsed := *record.GasUsed
		record.GasUsed = &gasUsed
	}

	return record
}
