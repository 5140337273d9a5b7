package testsCommon

import (
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"sync"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/tidwall/gjson"
)

// LogEntry is a log served by the RPCNodeStub
type LogEntry struct {
	Address     string
	BlockNumber uint64
	TxHash      string
	LogIndex    uint64
	Removed     bool
}

// RPCNodeStub is an http.Handler answering eth_blockNumber and eth_getLogs from memory
type RPCNodeStub struct {
	mut           sync.RWMutex
	head          uint64
	logs          []LogEntry
	calls         []string
	ranges        [][2]uint64
	failingMethod string
}

// NewRPCNodeStub -
func NewRPCNodeStub(head uint64) *RPCNodeStub {
	return &RPCNodeStub{
		head: head,
	}
}

// SetHead -
func (stub *RPCNodeStub) SetHead(head uint64) {
	stub.mut.Lock()
	stub.head = head
	stub.mut.Unlock()
}

// AddLogs -
func (stub *RPCNodeStub) AddLogs(logs ...LogEntry) {
	stub.mut.Lock()
	stub.logs = append(stub.logs, logs...)
	stub.mut.Unlock()
}

// SetFailingMethod makes the stub answer the provided method with a JSON-RPC error
func (stub *RPCNodeStub) SetFailingMethod(method string) {
	stub.mut.Lock()
	stub.failingMethod = method
	stub.mut.Unlock()
}

// Calls returns the called methods, in order
func (stub *RPCNodeStub) Calls() []string {
	stub.mut.RLock()
	defer stub.mut.RUnlock()

	return append(make([]string, 0, len(stub.calls)), stub.calls...)
}

// Ranges returns the requested eth_getLogs block ranges, in order
func (stub *RPCNodeStub) Ranges() [][2]uint64 {
	stub.mut.RLock()
	defer stub.mut.RUnlock()

	return append(make([][2]uint64, 0, len(stub.ranges)), stub.ranges...)
}

// ServeHTTP -
func (stub *RPCNodeStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	request := gjson.ParseBytes(body)
	method := request.Get("method").String()
	id := request.Get("id").Uint()

	stub.mut.Lock()
	stub.calls = append(stub.calls, method)
	failingMethod := stub.failingMethod
	stub.mut.Unlock()

	if method == failingMethod {
		writeJSON(w, map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      id,
			"error":   map[string]interface{}{"code": -32000, "message": "stub failure"},
		})
		return
	}

	var result interface{}
	switch method {
	case "eth_blockNumber":
		stub.mut.RLock()
		result = hexutil.EncodeUint64(stub.head)
		stub.mut.RUnlock()
	case "eth_getLogs":
		from, errFrom := hexutil.DecodeUint64(request.Get("params.0.fromBlock").String())
		to, errTo := hexutil.DecodeUint64(request.Get("params.0.toBlock").String())
		if errFrom != nil || errTo != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		result = stub.logsInRange(from, to)
	default:
		writeJSON(w, map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      id,
			"error":   map[string]interface{}{"code": -32601, "message": "method not found"},
		})
		return
	}

	writeJSON(w, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	})
}

func (stub *RPCNodeStub) logsInRange(from uint64, to uint64) []map[string]interface{} {
	stub.mut.Lock()
	defer stub.mut.Unlock()

	stub.ranges = append(stub.ranges, [2]uint64{from, to})

	result := make([]map[string]interface{}, 0)
	for _, entry := range stub.logs {
		if entry.BlockNumber < from || entry.BlockNumber > to {
			continue
		}
		result = append(result, map[string]interface{}{
			"address":          ethCommon.HexToAddress(entry.Address).Hex(),
			"blockNumber":      hexutil.EncodeUint64(entry.BlockNumber),
			"blockHash":        ethCommon.BigToHash(new(big.Int).SetUint64(entry.BlockNumber)).Hex(),
			"transactionHash":  ethCommon.HexToHash(entry.TxHash).Hex(),
			"transactionIndex": "0x0",
			"logIndex":         hexutil.EncodeUint64(entry.LogIndex),
			"removed":          entry.Removed,
			"data":             "0x",
			"topics":           []string{},
		})
	}

	return result
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
