// Package mcpserver exposes a Store as Model Context Protocol tools, so an
// agent can post records and read reconciled views over stdio.
package mcpserver

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/roach88/ldgraph/internal/store"
)

// Name and Version identify the server to clients.
const (
	Name    = "ldgraph"
	Version = "0.1.0"
)

// New creates an MCP server with every store tool registered.
func New(st *store.Store) *mcp.Server {
	t := &Tools{Store: st}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    Name,
		Version: Version,
	}, nil)

	// Writes
	srv.AddTool(&mcp.Tool{
		Name:        "post_record",
		Description: "Flatten a record (with nested entities) and record its properties as observations",
		InputSchema: postRecordSchema,
	}, t.PostRecord)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_property",
		Description: "Retract a property of a record, overriding observations it outranks",
	}, t.DeleteProperty)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "replace_property",
		Description: "Replace one value of a property with another",
	}, t.ReplaceProperty)

	// Reads
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_record",
		Description: "Resolve a record by type and id, embedding the records it references",
	}, t.GetRecord)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search_records",
		Description: "List records matching a filter, excluding those matching an optional negative filter",
	}, t.SearchRecords)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "record_stats",
		Description: "Confidence statistics for every value observed on a record",
	}, t.RecordStats)

	return srv
}
