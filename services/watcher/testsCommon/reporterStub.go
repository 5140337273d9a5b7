package testsCommon

import (
	"context"

	analytics "github.com/iulianpascalau/crosschain-analytics/services/analytics/common"
)

// ReporterStub -
type ReporterStub struct {
	ReportHandler func(ctx context.Context, records []analytics.TransactionRecord) error
}

// Report -
func (stub *ReporterStub) Report(ctx context.Context, records []analytics.TransactionRecord) error {
	if stub.ReportHandler != nil {
		return stub.ReportHandler(ctx, records)
	}

	return nil
}

// IsInterfaceNil -
func (stub *ReporterStub) IsInterfaceNil() bool {
	return stub == nil
}
