package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrAlreadyExists       = errors.New("entity already exists")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInvalidPayerContact = errors.New("payer email is not acceptable to the gateway")
	ErrInvalidAmount       = errors.New("payment amount must be greater than zero")
	ErrInvalidSignature    = errors.New("notification signature verification failed")
	ErrStaleCompletion     = errors.New("payment is outside the unsigned completion window")
	ErrNotPaymentOwner     = errors.New("payment belongs to a different payer")

	// Configuration errors; missing merchant credentials fail closed at startup.
	ErrMissingMerchantConfig = errors.New("merchant id and secret are required")

	// Persistence-layer errors
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid sql execution context")
)
