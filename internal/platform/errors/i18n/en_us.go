package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeUnknown                = "UNKNOWN"
	CodeCounterOverflow        = "COUNTER_OVERFLOW"
	CodeSameParentIndex        = "SAME_PARENT_INDEX"
	CodeInvalidAssetIndex      = "INVALID_ASSET_INDEX"
	CodeNotOwner               = "NOT_OWNER"
	CodeAlreadyOwned           = "ALREADY_OWNED"
	CodeNotForSale             = "NOT_FOR_SALE"
	CodeCurrencyTransferFailed = "CURRENCY_TRANSFER_FAILED"
	CodeInvalidArgument        = "INVALID_ARGUMENT"
	CodeNotFound               = "NOT_FOUND"
)

var enUS = map[Code]string{
	CodeUnknown:                "An unexpected error occurred.",
	CodeCounterOverflow:        "No more assets can be created.",
	CodeSameParentIndex:        "An asset cannot be bred with itself (asset {{.asset_id}}).",
	CodeInvalidAssetIndex:      "Asset {{.asset_id}} does not exist.",
	CodeNotOwner:               "You do not own asset {{.asset_id}}.",
	CodeAlreadyOwned:           "Asset {{.asset_id}} already belongs to {{.owner}}.",
	CodeNotForSale:             "Asset {{.asset_id}} is not for sale.",
	CodeCurrencyTransferFailed: "Payment of {{.amount}} for asset {{.asset_id}} failed.",
	CodeInvalidArgument:        "The request is invalid: {{.reason}}.",
	CodeNotFound:               "Not found.",
}
