package metrics

import (
	"errors"
	"time"

	"github.com/iulianpascalau/crosschain-analytics/services/analytics/common"
)

const (
	msPerHour        = int64(time.Hour / time.Millisecond)
	shortLabelFormat = "15:04"
	dayLabelFormat   = "Jan 02"
)

// ArgsAggregator holds the arguments needed to create an aggregator
type ArgsAggregator struct {
	Methods  []common.Method
	Location *time.Location
}

// aggregator derives metrics snapshots from ledger contents. It keeps no state between queries
type aggregator struct {
	methods  []common.Method
	location *time.Location
}

// NewAggregator creates an aggregator. Methods are the zero-filled keys of every snapshot's method counts
func NewAggregator(args ArgsAggregator) (*aggregator, error) {
	if len(args.Methods) == 0 {
		return nil, errors.New("empty method set")
	}
	location := args.Location
	if location == nil {
		location = time.UTC
	}

	methods := make([]common.Method, len(args.Methods))
	copy(methods, args.Methods)

	return &aggregator{
		methods:  methods,
		location: location,
	}, nil
}

// Query computes the snapshot of the records that fall inside the window ending at nowMs.
// A record is inside the window when nowMs - timestamp < window duration; records stamped in the future are kept
func (a *aggregator) Query(records []common.TransactionRecord, window TimeWindow, nowMs int64) common.MetricsSnapshot {
	durationMs := window.DurationMs()
	bucketMs := window.BucketMs()
	numBuckets := window.NumBuckets()
	windowStart := nowMs - durationMs

	snapshot := common.MetricsSnapshot{
		Window:       window.Name(),
		Now:          nowMs,
		MethodCounts: make(map[common.Method]int, len(a.methods)),
		ChainCounts:  make(map[uint64]int),
		Histogram:    make([]common.HistogramBucket, numBuckets),
	}
	for _, method := range a.methods {
		snapshot.MethodCounts[method] = 0
	}

	for i := 0; i < numBuckets; i++ {
		start := windowStart + int64(i)*bucketMs
		snapshot.Histogram[i] = common.HistogramBucket{
			Label: a.label(start, window),
			Start: start,
			End:   start + bucketMs,
		}
	}

	for _, record := range records {
		if nowMs-record.Timestamp >= durationMs {
			continue
		}

		snapshot.TotalTransactions++
		if record.Success {
			snapshot.SuccessfulTransactions++
		}
		snapshot.MethodCounts[record.Method]++
		snapshot.ChainCounts[record.ChainID]++

		if numBuckets > 0 {
			snapshot.Histogram[bucketIndex(record.Timestamp, windowStart, bucketMs, numBuckets)].Count++
		}
	}

	if snapshot.TotalTransactions > 0 {
		snapshot.SuccessRate = float64(snapshot.SuccessfulTransactions) / float64(snapshot.TotalTransactions) * 100
	}
	snapshot.AvgPerHour = avgPerHour(snapshot.TotalTransactions, durationMs)

	return snapshot
}

// bucketIndex places timestamps at or after the window end in the last bucket
func bucketIndex(timestamp int64, windowStart int64, bucketMs int64, numBuckets int) int {
	idx := (timestamp - windowStart) / bucketMs
	if idx >= int64(numBuckets) {
		return numBuckets - 1
	}
	if idx < 0 {
		return 0
	}

	return int(idx)
}

func avgPerHour(total int, durationMs int64) float64 {
	if durationMs == msPerHour {
		return float64(total)
	}

	return float64(total) / (float64(durationMs) / float64(msPerHour))
}

func (a *aggregator) label(startMs int64, window TimeWindow) string {
	format := shortLabelFormat
	if window.Bucket() >= 24*time.Hour {
		format = dayLabelFormat
	}

	return time.UnixMilli(startMs).In(a.location).Format(format)
}

// Methods returns the method set used for zero-filled grouping
func (a *aggregator) Methods() []common.Method {
	methods := make([]common.Method, len(a.methods))
	copy(methods, a.methods)

	return methods
}

// IsInterfaceNil returns true if the value under the interface is nil
func (a *aggregator) IsInterfaceNil() bool {
	return a == nil
}
