package mcptools

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register adds every registry tool to server. A nil Wallet leaves out
// balance_get.
func Register(server *mcp.Server, deps Deps) error {
	if server == nil {
		return fmt.Errorf("mcp server is required")
	}
	if deps.Registry == nil {
		return fmt.Errorf("registry is required")
	}
	if deps.Store == nil {
		return fmt.Errorf("store is required")
	}

	mcp.AddTool(server, AssetCreateTool(), AssetCreateHandler(deps))
	mcp.AddTool(server, AssetBreedTool(), AssetBreedHandler(deps))
	mcp.AddTool(server, AssetTransferTool(), AssetTransferHandler(deps))
	mcp.AddTool(server, AssetListTool(), AssetListHandler(deps))
	mcp.AddTool(server, AssetBuyTool(), AssetBuyHandler(deps))
	mcp.AddTool(server, AssetGetTool(), AssetGetHandler(deps))
	mcp.AddTool(server, RegistryCounterTool(), RegistryCounterHandler(deps))
	mcp.AddTool(server, AssetSearchTool(), AssetSearchHandler(deps))
	mcp.AddTool(server, EventListTool(), EventListHandler(deps))
	if deps.Wallet != nil {
		mcp.AddTool(server, BalanceGetTool(), BalanceGetHandler(deps))
	}
	return nil
}
