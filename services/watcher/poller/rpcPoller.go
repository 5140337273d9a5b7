package poller

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum"
	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/iulianpascalau/crosschain-analytics/services/watcher/common"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("poller")

// ArgsRPCPoller holds the arguments needed to create a JSON-RPC poller
type ArgsRPCPoller struct {
	URL             string
	ContractAddress string
	EventSignature  string
	Timeout         time.Duration
}

type rpcPoller struct {
	client  *ethclient.Client
	address ethCommon.Address
	topic   ethCommon.Hash
}

// NewRPCPoller creates a poller that reads the contract's logs from an EVM JSON-RPC node
func NewRPCPoller(args ArgsRPCPoller) (*rpcPoller, error) {
	if len(args.URL) == 0 {
		return nil, errEmptyURL
	}
	if !ethCommon.IsHexAddress(args.ContractAddress) {
		return nil, fmt.Errorf("%w: %q", errInvalidContractAddress, args.ContractAddress)
	}
	if len(args.EventSignature) == 0 {
		return nil, errEmptyEventSignature
	}

	rpcClient, err := rpc.DialOptions(context.Background(), args.URL, rpc.WithHTTPClient(&http.Client{
		Timeout: args.Timeout,
	}))
	if err != nil {
		return nil, fmt.Errorf("%w while dialing %s", err, args.URL)
	}

	p := &rpcPoller{
		client:  ethclient.NewClient(rpcClient),
		address: ethCommon.HexToAddress(args.ContractAddress),
		topic:   crypto.Keccak256Hash([]byte(args.EventSignature)),
	}
	log.Debug("created RPC poller", "contract", p.address.Hex(), "topic", p.topic.Hex())

	return p, nil
}

// BlockNumber returns the chain head
func (p *rpcPoller) BlockNumber(ctx context.Context) (uint64, error) {
	return p.client.BlockNumber(ctx)
}

// FetchLogs returns the contract's event logs between the two blocks, both included
func (p *rpcPoller) FetchLogs(ctx context.Context, fromBlock uint64, toBlock uint64) ([]common.EventLog, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []ethCommon.Address{p.address},
		Topics:    [][]ethCommon.Hash{{p.topic}},
	}

	logs, err := p.client.FilterLogs(ctx, query)
	if err != nil {
		return nil, err
	}

	result := make([]common.EventLog, 0, len(logs))
	for _, l := range logs {
		result = append(result, toEventLog(l))
	}

	return result, nil
}

func toEventLog(l types.Log) common.EventLog {
	return common.EventLog{
		Address:     l.Address.Hex(),
		BlockNumber: l.BlockNumber,
		TxHash:      l.TxHash.Hex(),
		LogIndex:    uint64(l.Index),
		Removed:     l.Removed,
	}
}

// Close releases the RPC client
func (p *rpcPoller) Close() {
	p.client.Close()
}

// IsInterfaceNil returns true if the value under the interface is nil
func (p *rpcPoller) IsInterfaceNil() bool {
	return p == nil
}
