package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrInvalidFee      = errors.Register(ModuleName, 1, "fee or discount outside [0, 10000] basis points")
	ErrInvalidAmount   = errors.Register(ModuleName, 2, "contribution amount must be positive")
	ErrPoolNotFound    = errors.Register(ModuleName, 3, "pool not found")
	ErrPoolNotActive   = errors.Register(ModuleName, 4, "pool is not accepting contributions")
	ErrPoolNotClosable = errors.Register(ModuleName, 5, "pool must be funded or expired before closing")
	ErrUnauthorized    = errors.Register(ModuleName, 6, "unauthorized")
	ErrNotInitialized  = errors.Register(ModuleName, 7, "module admin has not been set")
	ErrInvalidPoolName = errors.Register(ModuleName, 8, "pool name cannot be empty")
	ErrInvalidTarget   = errors.Register(ModuleName, 9, "target amount must be positive")
	ErrInvalidDeadline = errors.Register(ModuleName, 10, "deadline must be in the future")
	ErrInvalidSigners  = errors.Register(ModuleName, 11, "invalid signer configuration")
	ErrAlreadyApproved = errors.Register(ModuleName, 12, "signer already approved this close")
)
