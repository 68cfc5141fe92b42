// Package mcptools exposes the registry calls and queries as MCP tools.
//
// Each tool pairs a schema constructor (XTool) with a handler constructor
// (XHandler). Rejected calls come back as tool errors whose text is rendered
// from the error catalog for the configured locale, with the error code and
// request id in the result metadata.
package mcptools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AssetResult is the tool view of one asset.
type AssetResult struct {
	ID      uint32  `json:"id" jsonschema:"asset identifier"`
	Genome  string  `json:"genome" jsonschema:"16-byte genome as lowercase hex"`
	Owner   string  `json:"owner" jsonschema:"owning account"`
	ForSale bool    `json:"for_sale" jsonschema:"whether the asset has a listing"`
	Price   *uint64 `json:"price,omitempty" jsonschema:"listing price when for sale"`
}

// AssetCreateInput represents the MCP tool input for minting an asset.
type AssetCreateInput struct {
	Caller string `json:"caller" jsonschema:"account that will own the new asset (required)"`
}

// AssetCreateResult represents the MCP tool output for a minted asset.
type AssetCreateResult struct {
	Asset AssetResult `json:"asset" jsonschema:"the new asset"`
	Seq   uint64      `json:"seq" jsonschema:"journal sequence of the creation event"`
}

// AssetBreedInput represents the MCP tool input for breeding two assets.
type AssetBreedInput struct {
	Caller  string `json:"caller" jsonschema:"account that will own the child (required)"`
	Parent1 uint32 `json:"parent_1" jsonschema:"first parent asset id"`
	Parent2 uint32 `json:"parent_2" jsonschema:"second parent asset id"`
}

// AssetTransferInput represents the MCP tool input for a transfer.
type AssetTransferInput struct {
	Caller  string `json:"caller" jsonschema:"current owner (required)"`
	To      string `json:"to" jsonschema:"new owner (required)"`
	AssetID uint32 `json:"asset_id" jsonschema:"asset to transfer"`
}

// AssetTransferResult represents the MCP tool output for a transfer.
type AssetTransferResult struct {
	AssetID uint32 `json:"asset_id" jsonschema:"transferred asset"`
	Owner   string `json:"owner" jsonschema:"owner after the transfer"`
}

// AssetListInput represents the MCP tool input for listing or delisting.
type AssetListInput struct {
	Caller  string  `json:"caller" jsonschema:"current owner (required)"`
	AssetID uint32  `json:"asset_id" jsonschema:"asset to list"`
	Price   *uint64 `json:"price,omitempty" jsonschema:"sale price; omit to delist"`
}

// AssetListResult represents the MCP tool output for a listing update.
type AssetListResult struct {
	AssetID uint32  `json:"asset_id" jsonschema:"listed asset"`
	ForSale bool    `json:"for_sale" jsonschema:"whether the asset is now listed"`
	Price   *uint64 `json:"price,omitempty" jsonschema:"listing price when for sale"`
}

// AssetBuyInput represents the MCP tool input for buying a listed asset.
type AssetBuyInput struct {
	Buyer   string `json:"buyer" jsonschema:"paying account (required)"`
	AssetID uint32 `json:"asset_id" jsonschema:"asset to buy"`
}

// AssetBuyResult represents the MCP tool output for a completed sale.
type AssetBuyResult struct {
	AssetID uint32 `json:"asset_id" jsonschema:"bought asset"`
	Buyer   string `json:"buyer" jsonschema:"new owner"`
	Seller  string `json:"seller" jsonschema:"previous owner, who received the payment"`
	Price   uint64 `json:"price" jsonschema:"amount paid"`
}

// AssetGetInput represents the MCP tool input for reading one asset.
type AssetGetInput struct {
	AssetID uint32 `json:"asset_id" jsonschema:"asset identifier"`
}

// RegistryCounterInput represents the MCP tool input for the counter query.
type RegistryCounterInput struct{}

// RegistryCounterResult represents the MCP tool output for the counter query.
type RegistryCounterResult struct {
	Counter uint32 `json:"counter" jsonschema:"id the next minted asset will receive"`
	Max     uint32 `json:"max" jsonschema:"largest assignable asset id"`
}

// AssetSearchInput represents the MCP tool input for searching assets.
type AssetSearchInput struct {
	Filter    string `json:"filter,omitempty" jsonschema:"AIP-160 filter over id, owner, price, listed"`
	PageSize  int    `json:"page_size,omitempty" jsonschema:"maximum assets to return"`
	PageToken string `json:"page_token,omitempty" jsonschema:"token from a previous page"`
}

// AssetSearchResult represents the MCP tool output for an asset search.
type AssetSearchResult struct {
	Assets        []AssetResult `json:"assets" jsonschema:"matching assets in id order"`
	NextPageToken string        `json:"next_page_token,omitempty" jsonschema:"token for the next page"`
}

// EventListInput represents the MCP tool input for reading the journal.
type EventListInput struct {
	AfterSeq uint64 `json:"after_seq,omitempty" jsonschema:"return events after this sequence"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum events to return"`
	Filter   string `json:"filter,omitempty" jsonschema:"AIP-160 filter over type, caller, asset_id, block"`
}

// EventResult is the tool view of one journal entry.
type EventResult struct {
	Seq         uint64 `json:"seq" jsonschema:"journal sequence"`
	Type        string `json:"type" jsonschema:"event type"`
	Caller      string `json:"caller" jsonschema:"calling account"`
	AssetID     uint32 `json:"asset_id" jsonschema:"affected asset"`
	BlockNumber uint64 `json:"block_number" jsonschema:"block the call ran in"`
	CallIndex   uint32 `json:"call_index" jsonschema:"call index within the block"`
	RequestID   string `json:"request_id,omitempty" jsonschema:"request correlation id"`
	Timestamp   string `json:"timestamp" jsonschema:"RFC3339 time the event was recorded"`
	Payload     string `json:"payload" jsonschema:"event payload JSON"`
	ChainHash   string `json:"chain_hash" jsonschema:"journal chain hash through this event"`
}

// EventListResult represents the MCP tool output for a journal read.
type EventListResult struct {
	Events []EventResult `json:"events" jsonschema:"events in sequence order"`
}

// BalanceGetInput represents the MCP tool input for a balance query.
type BalanceGetInput struct {
	Account string `json:"account" jsonschema:"account to query (required)"`
}

// BalanceGetResult represents the MCP tool output for a balance query.
type BalanceGetResult struct {
	Account            string `json:"account" jsonschema:"queried account"`
	Free               uint64 `json:"free" jsonschema:"free balance"`
	ExistentialDeposit uint64 `json:"existential_deposit" jsonschema:"minimum balance an account must keep to exist"`
}

// AssetCreateTool defines the MCP tool schema for minting an asset.
func AssetCreateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "asset_create",
		Description: "Mints a new asset with a random genome, owned by the caller",
	}
}

// AssetBreedTool defines the MCP tool schema for breeding two assets.
func AssetBreedTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "asset_breed",
		Description: "Mints a child of two distinct existing assets, mixing their genomes byte by byte",
	}
}

// AssetTransferTool defines the MCP tool schema for a transfer.
func AssetTransferTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "asset_transfer",
		Description: "Transfers an asset from its owner to another account. Any listing stays in place",
	}
}

// AssetListTool defines the MCP tool schema for listing an asset for sale.
func AssetListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "asset_list_for_sale",
		Description: "Sets the sale price of an owned asset, or delists it when price is omitted",
	}
}

// AssetBuyTool defines the MCP tool schema for buying a listed asset.
func AssetBuyTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "asset_buy",
		Description: "Pays the listed price to the asset's owner and takes ownership",
	}
}

// AssetGetTool defines the MCP tool schema for reading one asset.
func AssetGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "asset_get",
		Description: "Returns an asset's genome, owner, and listing",
	}
}

// RegistryCounterTool defines the MCP tool schema for the counter query.
func RegistryCounterTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "registry_counter",
		Description: "Returns the id the next minted asset will receive",
	}
}

// AssetSearchTool defines the MCP tool schema for searching assets.
func AssetSearchTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "asset_search",
		Description: "Pages through assets matching an AIP-160 filter, e.g. owner = \"alice\" AND listed",
	}
}

// EventListTool defines the MCP tool schema for reading the journal.
func EventListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "event_list",
		Description: "Lists journal events in sequence order",
	}
}

// BalanceGetTool defines the MCP tool schema for a balance query.
func BalanceGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "balance_get",
		Description: "Returns an account's free balance on the development host",
	}
}
