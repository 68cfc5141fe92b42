// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Asset registry errors
	CodeCounterOverflow   Code = "COUNTER_OVERFLOW"
	CodeSameParentIndex   Code = "SAME_PARENT_INDEX"
	CodeInvalidAssetIndex Code = "INVALID_ASSET_INDEX"

	// Ownership errors
	CodeNotOwner     Code = "NOT_OWNER"
	CodeAlreadyOwned Code = "ALREADY_OWNED"

	// Marketplace errors
	CodeNotForSale             Code = "NOT_FOR_SALE"
	CodeCurrencyTransferFailed Code = "CURRENCY_TRANSFER_FAILED"

	// Request errors
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeSameParentIndex,
		CodeInvalidArgument:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeAlreadyOwned,
		CodeNotForSale,
		CodeCurrencyTransferFailed:
		return codes.FailedPrecondition

	// PermissionDenied - caller does not hold the asset
	case CodeNotOwner:
		return codes.PermissionDenied

	// ResourceExhausted - id space used up
	case CodeCounterOverflow:
		return codes.ResourceExhausted

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeInvalidAssetIndex:
		return codes.NotFound

	default:
		return codes.Internal
	}
}
