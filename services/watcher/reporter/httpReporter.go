package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	analytics "github.com/iulianpascalau/crosschain-analytics/services/analytics/common"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/tidwall/gjson"
)

var log = logger.GetOrCreate("reporter")

type httpReporter struct {
	endpoint string
	client   *http.Client
}

// NewHTTPReporter creates a new reporter that pushes records to the analytics producer endpoint
func NewHTTPReporter(endpoint string, timeout time.Duration) (*httpReporter, error) {
	if len(endpoint) == 0 {
		return nil, errors.New("empty report endpoint")
	}

	return &httpReporter{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Report sends the records in one batch. Records the analytics service refuses are logged, not retried
func (r *httpReporter) Report(ctx context.Context, records []analytics.TransactionRecord) error {
	if len(records) == 0 {
		return nil
	}

	body, err := json.Marshal(analytics.RecordsPayload{Records: records})
	if err != nil {
		return fmt.Errorf("failed to marshal report payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create report request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("network error sending report: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server rejected report with status code: %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read report response: %w", err)
	}

	rejected := gjson.GetBytes(respBody, "rejected").Int()
	if rejected > 0 {
		log.Warn("analytics service rejected records", "rejected", rejected, "sent", len(records))
	}

	log.Debug("successfully sent records", "endpoint", r.endpoint,
		"accepted", gjson.GetBytes(respBody, "accepted").Int())

	return nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (r *httpReporter) IsInterfaceNil() bool {
	return r == nil
}
