package poller

import "errors"

var errInvalidContractAddress = errors.New("invalid contract address")

var errEmptyEventSignature = errors.New("empty event signature")

var errEmptyURL = errors.New("empty RPC URL")
