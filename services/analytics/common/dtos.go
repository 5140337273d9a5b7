package common

// Method identifies the code path that produced a transaction record
type Method string

const (
	// MethodIncrementer is a submission through the cross-chain counter incrementer contract
	MethodIncrementer Method = "incrementer"
	// MethodDirect is a submission through a direct cross-domain messenger call
	MethodDirect Method = "direct"
	// MethodEvent is an observed CounterIncremented event on the destination chain
	MethodEvent Method = "event"
)

// AllMethods returns the closed set of known methods, in display order
func AllMethods() []Method {
	return []Method{MethodIncrementer, MethodDirect, MethodEvent}
}

// IsValid returns true if the method belongs to the closed set of known methods
func (m Method) IsValid() bool {
	for _, known := range AllMethods() {
		if m == known {
			return true
		}
	}

	return false
}

// TransactionRecord is one submitted transaction or one observed event
type TransactionRecord struct {
	Timestamp       int64   `json:"timestamp"` // ms since epoch, assigned by the producer
	ChainID         uint64  `json:"chainId"`
	Method          Method  `json:"method"`
	Success         bool    `json:"success"`
	BlockNumber     uint64  `json:"blockNumber"` // 0 when not yet known
	TransactionHash string  `json:"transactionHash,omitempty"`
	GasUsed         *uint64 `json:"gasUsed,omitempty"`
}

// RecordsPayload is the body accepted by, and returned from, the transactions endpoints
type RecordsPayload struct {
	Records []TransactionRecord `json:"records"`
}

// HistogramBucket is one time slot of the activity histogram. Count holds the records with Start <= timestamp < End
type HistogramBucket struct {
	Label string `json:"label"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
	Count int    `json:"count"`
}

// MetricsSnapshot is the derived view over the ledger for a time window. It is computed on each query
type MetricsSnapshot struct {
	Window                 string            `json:"window"`
	Now                    int64             `json:"now"`
	TotalTransactions      int               `json:"totalTransactions"`
	SuccessfulTransactions int               `json:"successfulTransactions"`
	SuccessRate            float64           `json:"successRate"`
	AvgPerHour             float64           `json:"avgPerHour"`
	MethodCounts           map[Method]int    `json:"methodCounts"`
	ChainCounts            map[uint64]int    `json:"chainCounts"`
	Histogram              []HistogramBucket `json:"histogram"`
}
