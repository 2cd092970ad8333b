// Package toolserver exposes the back-office operations as MCP tools for
// agent callers.
package toolserver

import (
	"context"
	"errors"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/paperdesk/backoffice/internal/ledger"
	"github.com/paperdesk/backoffice/internal/quotes"
	"github.com/paperdesk/backoffice/internal/supply"
)

const (
	serverName    = "paperdesk-backoffice"
	serverVersion = "1.0.0"
)

// Deps are the domain services the tools call into.
type Deps struct {
	Ledger    *ledger.Service
	Quotes    *quotes.Service
	Estimator *supply.Estimator
	Logger    *slog.Logger
	// Today returns the date used when a tool omits as_of.
	Today func() string
}

// New builds an MCP server with every back-office tool registered.
func New(deps Deps) *mcp.Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	registerLedgerTools(server, deps)
	registerQuoteTools(server, deps)
	registerSupplyTools(server, deps)
	return server
}

// Serve runs server over transport until ctx is cancelled or the peer
// disconnects.
func Serve(ctx context.Context, server *mcp.Server, transport mcp.Transport, logger *slog.Logger) error {
	logger.Info("mcp server starting", slog.String("name", serverName))
	err := server.Run(ctx, transport)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("mcp server stopped")
	return nil
}
