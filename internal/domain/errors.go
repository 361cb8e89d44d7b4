package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrAlreadyStarted       = errors.New("simulation already started")
	ErrNotConnected         = errors.New("entities not connected")
	ErrSelfConnection       = errors.New("entity cannot connect to itself")
	ErrDuplicateEntity      = errors.New("entity already registered")
	ErrSelfTransfer         = errors.New("cannot transfer to self")
	ErrRunActive            = errors.New("another run holds the active lease")
)
