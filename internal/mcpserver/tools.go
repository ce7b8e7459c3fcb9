package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/roach88/ldgraph/internal/ld"
	"github.com/roach88/ldgraph/internal/observe"
	"github.com/roach88/ldgraph/internal/stats"
	"github.com/roach88/ldgraph/internal/store"
)

// defaultCredibility applies when a write omits credibility.
const defaultCredibility = 1.0

// Tools holds the store behind the tool handlers. Store is not safe for
// concurrent use, so every handler holds mu.
type Tools struct {
	Store *store.Store

	mu sync.Mutex
}

// --- Input types ---

// PostRecordInput keeps the record undecoded so its property order
// reaches ld.ParseRecord intact.
type PostRecordInput struct {
	Record      json.RawMessage `json:"record"`
	Credibility *float64        `json:"credibility,omitempty"`
	Source      string          `json:"source,omitempty"`
}

// postRecordSchema is declared by hand: the typed AddTool path re-encodes
// arguments through a map, which sorts their keys.
var postRecordSchema = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"record"},
	Properties: map[string]*jsonschema.Schema{
		"record":      {Type: "object", Description: "Record to post; must carry a type"},
		"credibility": {Type: "number", Description: "Credibility of the source in [0,1] (default 1)"},
		"source":      {Type: "string", Description: "Name of the source"},
	},
}

type RefInput struct {
	Type string `json:"type" jsonschema:"Record type"`
	ID   string `json:"id" jsonschema:"Record id"`
}

type DeletePropertyInput struct {
	Type        string   `json:"type" jsonschema:"Record type"`
	ID          string   `json:"id" jsonschema:"Record id"`
	Property    string   `json:"property" jsonschema:"Property to retract; \"*\" retracts every property but type"`
	Credibility *float64 `json:"credibility,omitempty" jsonschema:"Credibility of the source in [0,1] (default 1)"`
	Source      string   `json:"source,omitempty" jsonschema:"Name of the source"`
}

type ReplacePropertyInput struct {
	Type        string   `json:"type" jsonschema:"Record type"`
	ID          string   `json:"id" jsonschema:"Record id"`
	Property    string   `json:"property" jsonschema:"Property to change"`
	Previous    any      `json:"previous,omitempty" jsonschema:"Value being replaced; omit to replace every value"`
	Value       any      `json:"value" jsonschema:"New value"`
	Credibility *float64 `json:"credibility,omitempty" jsonschema:"Credibility of the source in [0,1] (default 1)"`
	Source      string   `json:"source,omitempty" jsonschema:"Name of the source"`
}

type SearchRecordsInput struct {
	Filter   map[string]any `json:"filter" jsonschema:"Filter, e.g. {\"type\":\"Person\",\"age\":{\"$gt\":25}}"`
	Negative map[string]any `json:"negative,omitempty" jsonschema:"Records matching this filter are excluded"`
}

// --- Handlers ---

// PostRecord is a raw handler: it decodes its own arguments.
func (t *Tools) PostRecord(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input PostRecordInput
	if err := json.Unmarshal(req.Params.Arguments, &input); err != nil {
		return toolError("Invalid arguments: %v", err), nil
	}
	if len(input.Record) == 0 {
		return toolError("Invalid record: record is required"), nil
	}
	rec, err := ld.ParseRecord(input.Record)
	if err != nil {
		return toolError("Invalid record: %v", err), nil
	}
	if !rec.Valid() {
		return toolError("Invalid record: a record needs a type"), nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.Store.Post(rec, metadata(input.Credibility, input.Source)); err != nil {
		return toolError("Failed to post record: %v", err), nil
	}
	return toolText(fmt.Sprintf("Posted %s", rec.Key())), nil
}

func (t *Tools) DeleteProperty(ctx context.Context, req *mcp.CallToolRequest, input DeletePropertyInput) (*mcp.CallToolResult, any, error) {
	ref, res := refOf(input.Type, input.ID)
	if res != nil {
		return res, nil, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.Store.Delete(ref, input.Property, metadata(input.Credibility, input.Source)); err != nil {
		return toolError("Failed to delete %s: %v", input.Property, err), nil, nil
	}
	return toolText(fmt.Sprintf("Deleted %s of %s:%s", input.Property, input.Type, input.ID)), nil, nil
}

func (t *Tools) ReplaceProperty(ctx context.Context, req *mcp.CallToolRequest, input ReplacePropertyInput) (*mcp.CallToolResult, any, error) {
	ref, res := refOf(input.Type, input.ID)
	if res != nil {
		return res, nil, nil
	}
	previous, err := ld.FromAny(input.Previous)
	if err != nil {
		return toolError("Invalid previous value: %v", err), nil, nil
	}
	value, err := ld.FromAny(input.Value)
	if err != nil {
		return toolError("Invalid value: %v", err), nil, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.Store.Replace(ref, input.Property, previous, value, metadata(input.Credibility, input.Source)); err != nil {
		return toolError("Failed to replace %s: %v", input.Property, err), nil, nil
	}
	return toolText(fmt.Sprintf("Replaced %s of %s:%s", input.Property, input.Type, input.ID)), nil, nil
}

func (t *Tools) GetRecord(ctx context.Context, req *mcp.CallToolRequest, input RefInput) (*mcp.CallToolResult, any, error) {
	ref, res := refOf(input.Type, input.ID)
	if res != nil {
		return res, nil, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	rec, err := t.Store.Get(ref)
	if err != nil {
		return toolError("Failed to get record: %v", err), nil, nil
	}
	if rec == nil {
		return toolError("Record not found: %s:%s", input.Type, input.ID), nil, nil
	}
	return toolValue(rec)
}

func (t *Tools) SearchRecords(ctx context.Context, req *mcp.CallToolRequest, input SearchRecordsInput) (*mcp.CallToolResult, any, error) {
	filter, err := ld.FromAny(input.Filter)
	if err != nil {
		return toolError("Invalid filter: %v", err), nil, nil
	}
	var negative ld.Value
	if input.Negative != nil {
		if negative, err = ld.FromAny(input.Negative); err != nil {
			return toolError("Invalid negative filter: %v", err), nil, nil
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	results, err := t.Store.Search(filter, negative)
	if err != nil {
		return toolError("Invalid filter: %v", err), nil, nil
	}
	list := make(ld.List, len(results))
	for i, r := range results {
		list[i] = r
	}
	return toolValue(list)
}

func (t *Tools) RecordStats(ctx context.Context, req *mcp.CallToolRequest, input RefInput) (*mcp.CallToolResult, any, error) {
	ref, res := refOf(input.Type, input.ID)
	if res != nil {
		return res, nil, nil
	}

	t.mu.Lock()
	byProp, err := t.Store.Stats(ref)
	t.mu.Unlock()
	if err != nil {
		return toolError("Failed to compute statistics: %v", err), nil, nil
	}
	report, err := stats.Report(byProp)
	if err != nil {
		return toolError("Failed to render statistics: %v", err), nil, nil
	}
	return toolJSON(report)
}

// --- Helpers ---

func metadata(credibility *float64, source string) observe.Metadata {
	meta := observe.Metadata{Credibility: defaultCredibility, Source: source}
	if credibility != nil {
		meta.Credibility = *credibility
	}
	return meta
}

func refOf(typ, id string) (*ld.Record, *mcp.CallToolResult) {
	if typ == "" || id == "" {
		return nil, toolError("A record reference needs both type and id")
	}
	return ld.Key{Type: typ, ID: id}.Ref(), nil
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return toolText(string(data)), nil, nil
}

// toolValue renders v with its property order intact.
func toolValue(v ld.Value) (*mcp.CallToolResult, any, error) {
	data, err := ld.Marshal(v)
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return toolText(buf.String()), nil, nil
}
