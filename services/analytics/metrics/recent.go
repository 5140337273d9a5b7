package metrics

import "github.com/iulianpascalau/crosschain-analytics/services/analytics/common"

// Recent returns up to n of the last appended records, newest first. A non-positive n returns an empty slice
func Recent(records []common.TransactionRecord, n int) []common.TransactionRecord {
	if n <= 0 {
		return make([]common.TransactionRecord, 0)
	}
	if n > len(records) {
		n = len(records)
	}

	result := make([]common.TransactionRecord, 0, n)
	for i := len(records) - 1; i >= len(records)-n; i-- {
		result = append(result, records[i])
	}

	return result
}
