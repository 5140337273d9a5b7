package poller

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/iulianpascalau/crosschain-analytics/services/watcher/testsCommon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const testContract = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

func createArgs(url string) ArgsRPCPoller {
	return ArgsRPCPoller{
		URL:             url,
		ContractAddress: testContract,
		EventSignature:  "CounterIncremented(uint256,address,uint256)",
		Timeout:         time.Second,
	}
}

func TestNewRPCPoller(t *testing.T) {
	t.Parallel()

	t.Run("empty URL should error", func(t *testing.T) {
		p, err := NewRPCPoller(createArgs(""))
		assert.Nil(t, p)
		assert.True(t, p.IsInterfaceNil())
		assert.Equal(t, errEmptyURL, err)
	})
	t.Run("invalid contract address should error", func(t *testing.T) {
		args := createArgs("http://127.0.0.1:8545")
		args.ContractAddress = "0x1234"
		p, err := NewRPCPoller(args)
		assert.Nil(t, p)
		assert.True(t, errors.Is(err, errInvalidContractAddress))
	})
	t.Run("empty event signature should error", func(t *testing.T) {
		args := createArgs("http://127.0.0.1:8545")
		args.EventSignature = ""
		p, err := NewRPCPoller(args)
		assert.Nil(t, p)
		assert.Equal(t, errEmptyEventSignature, err)
	})
	t.Run("should work", func(t *testing.T) {
		p, err := NewRPCPoller(createArgs("http://127.0.0.1:8545"))
		require.Nil(t, err)
		defer p.Close()
		assert.False(t, p.IsInterfaceNil())
		assert.Equal(t, crypto.Keccak256Hash([]byte("CounterIncremented(uint256,address,uint256)")), p.topic)
	})
}

func TestRPCPoller_BlockNumber(t *testing.T) {
	t.Parallel()

	node := testsCommon.NewRPCNodeStub(0x1b4)
	server := httptest.NewServer(node)
	defer server.Close()

	p, err := NewRPCPoller(createArgs(server.URL))
	require.Nil(t, err)
	defer p.Close()

	head, err := p.BlockNumber(context.Background())
	require.Nil(t, err)
	assert.Equal(t, uint64(436), head)
	assert.Equal(t, []string{"eth_blockNumber"}, node.Calls())
}

func TestRPCPoller_FetchLogs(t *testing.T) {
	t.Parallel()

	node := testsCommon.NewRPCNodeStub(100)
	node.AddLogs(
		testsCommon.LogEntry{Address: testContract, BlockNumber: 9, TxHash: "0x01", LogIndex: 0},
		testsCommon.LogEntry{Address: testContract, BlockNumber: 10, TxHash: "0x0a", LogIndex: 0},
		testsCommon.LogEntry{Address: testContract, BlockNumber: 12, TxHash: "0x0c", LogIndex: 3, Removed: true},
		testsCommon.LogEntry{Address: testContract, BlockNumber: 21, TxHash: "0x15", LogIndex: 0},
	)
	server := httptest.NewServer(node)
	defer server.Close()

	p, err := NewRPCPoller(createArgs(server.URL))
	require.Nil(t, err)
	defer p.Close()

	logs, err := p.FetchLogs(context.Background(), 10, 20)
	require.Nil(t, err)
	require.Len(t, logs, 2)

	assert.Equal(t, ethCommon.HexToAddress(testContract).Hex(), logs[0].Address)
	assert.Equal(t, uint64(10), logs[0].BlockNumber)
	assert.Equal(t, ethCommon.HexToHash("0x0a").Hex(), logs[0].TxHash)
	assert.False(t, logs[0].Removed)
	assert.Equal(t, uint64(3), logs[1].LogIndex)
	assert.True(t, logs[1].Removed)
	assert.Equal(t, [][2]uint64{{10, 20}}, node.Ranges())
}

func TestRPCPoller_FilterPayload(t *testing.T) {
	t.Parallel()

	requests := make(chan []byte, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests <- body
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":[]}`))
	}))
	defer server.Close()

	p, err := NewRPCPoller(createArgs(server.URL))
	require.Nil(t, err)
	defer p.Close()

	logs, err := p.FetchLogs(context.Background(), 255, 256)
	require.Nil(t, err)
	assert.Empty(t, logs)

	received := gjson.ParseBytes(<-requests)
	assert.Equal(t, "2.0", received.Get("jsonrpc").String())
	assert.Equal(t, "eth_getLogs", received.Get("method").String())
	assert.Equal(t, "0xff", received.Get("params.0.fromBlock").String())
	assert.Equal(t, "0x100", received.Get("params.0.toBlock").String())
	assert.Equal(t, ethCommon.HexToAddress(testContract).Hex(), received.Get("params.0.address.0").String())
	assert.Equal(t, p.topic.Hex(), received.Get("params.0.topics.0.0").String())
}

func TestRPCPoller_Errors(t *testing.T) {
	t.Parallel()

	t.Run("RPC error", func(t *testing.T) {
		node := testsCommon.NewRPCNodeStub(1)
		node.SetFailingMethod("eth_blockNumber")
		server := httptest.NewServer(node)
		defer server.Close()

		p, _ := NewRPCPoller(createArgs(server.URL))
		defer p.Close()
		_, err := p.BlockNumber(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "stub failure")
	})
	t.Run("non 2xx status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		p, _ := NewRPCPoller(createArgs(server.URL))
		defer p.Close()
		_, err := p.BlockNumber(context.Background())
		var httpErr rpc.HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	})
	t.Run("missing result", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1}`))
		}))
		defer server.Close()

		p, _ := NewRPCPoller(createArgs(server.URL))
		defer p.Close()
		_, err := p.FetchLogs(context.Background(), 1, 2)
		assert.True(t, errors.Is(err, rpc.ErrNoResult))
	})
	t.Run("malformed log", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":[{"blockNumber":"0xc","logIndex":"0x0","data":"0x","topics":[]}]}`))
		}))
		defer server.Close()

		p, _ := NewRPCPoller(createArgs(server.URL))
		defer p.Close()
		logs, err := p.FetchLogs(context.Background(), 1, 20)
		assert.Nil(t, logs)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing required field")
	})
	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(2 * time.Second)
		}))
		defer server.Close()

		args := createArgs(server.URL)
		args.Timeout = 100 * time.Millisecond
		p, _ := NewRPCPoller(args)
		defer p.Close()
		_, err := p.BlockNumber(context.Background())
		assert.Error(t, err)
	})
}
