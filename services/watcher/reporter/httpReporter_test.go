package reporter

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	analytics "github.com/iulianpascalau/crosschain-analytics/services/analytics/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestNewHTTPReporter(t *testing.T) {
	t.Parallel()

	r, err := NewHTTPReporter("", time.Second)
	assert.Nil(t, r)
	assert.True(t, r.IsInterfaceNil())
	assert.Error(t, err)

	r, err = NewHTTPReporter("http://127.0.0.1:8080/api/transactions", time.Second)
	assert.Nil(t, err)
	assert.False(t, r.IsInterfaceNil())
}

func TestHTTPReporter_Report(t *testing.T) {
	t.Parallel()

	bodies := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		buf := new(strings.Builder)
		_, _ = io.Copy(buf, r.Body)
		bodies <- buf.String()

		_, _ = w.Write([]byte(`{"accepted":1,"rejected":0}`))
	}))
	defer server.Close()

	reporter, err := NewHTTPReporter(server.URL, 2*time.Second)
	require.NoError(t, err)

	records := []analytics.TransactionRecord{
		{
			Timestamp:       1704110400000,
			ChainID:         902,
			Method:          analytics.MethodEvent,
			Success:         true,
			BlockNumber:     77,
			TransactionHash: "0xabc",
		},
	}

	err = reporter.Report(context.Background(), records)
	require.NoError(t, err)

	received := <-bodies
	assert.Equal(t, int64(902), gjson.Get(received, "records.0.chainId").Int())
	assert.Equal(t, "event", gjson.Get(received, "records.0.method").String())
	assert.Equal(t, int64(77), gjson.Get(received, "records.0.blockNumber").Int())
	assert.Equal(t, "0xabc", gjson.Get(received, "records.0.transactionHash").String())
}

func TestHTTPReporter_EmptyBatchIsNotSent(t *testing.T) {
	t.Parallel()

	calls := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls <- struct{}{}
	}))
	defer server.Close()

	reporter, _ := NewHTTPReporter(server.URL, time.Second)
	require.NoError(t, reporter.Report(context.Background(), nil))
	assert.Len(t, calls, 0)
}

func TestHTTPReporter_Errors(t *testing.T) {
	t.Parallel()

	records := []analytics.TransactionRecord{{Timestamp: 1, ChainID: 902, Method: analytics.MethodEvent, Success: true}}

	t.Run("rejection status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		reporter, _ := NewHTTPReporter(server.URL, time.Second)
		err := reporter.Report(context.Background(), records)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "400")
	})
	t.Run("analytics backend failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"database is locked","accepted":0,"rejected":0}`))
		}))
		defer server.Close()

		reporter, _ := NewHTTPReporter(server.URL, time.Second)
		err := reporter.Report(context.Background(), records)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "500")
	})
	t.Run("network error", func(t *testing.T) {
		reporter, _ := NewHTTPReporter("http://127.0.0.1:1", time.Second)
		err := reporter.Report(context.Background(), records)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "network error")
	})
	t.Run("rejected records do not fail the report", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"accepted":0,"rejected":1}`))
		}))
		defer server.Close()

		reporter, _ := NewHTTPReporter(server.URL, time.Second)
		assert.NoError(t, reporter.Report(context.Background(), records))
	})
}
