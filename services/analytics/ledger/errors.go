package ledger

import "errors"

// ErrInvalidRecord signals that a record is missing a required field
var ErrInvalidRecord = errors.New("invalid record")

// ErrInvalidCapacity signals a ledger capacity lower than 1
var ErrInvalidCapacity = errors.New("invalid ledger capacity")
