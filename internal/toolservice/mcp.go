package toolservice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// createTextResponse wraps text as the single-content-block result
// every tool here returns, following the teacher's createJSONResponse/
// createCompactResponse split in internal/mcp/response.go — these
// tools render plain text rather than JSON, so there's one helper
// instead of a per-shape switch.
func createTextResponse(text string) (*mcp.CallToolResult, error) {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}, nil
}

// createErrorResponse reports a tool-level failure inside the result
// object with IsError set, not as a protocol-level error: per MCP's
// spec, a protocol error hides the failure from the model entirely,
// while IsError lets it see the message and self-correct. Mirrors the
// teacher's internal/mcp/response.go createErrorResponse.
func createErrorResponse(operation string, err error) (*mcp.CallToolResult, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("%s failed: %v", operation, err)}},
		IsError: true,
	}, nil
}

func schema(props map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Properties: props, Required: required}
}

func strProp(desc string) *jsonschema.Schema  { return &jsonschema.Schema{Type: "string", Description: desc} }
func intProp(desc string) *jsonschema.Schema  { return &jsonschema.Schema{Type: "integer", Description: desc} }
func numProp(desc string) *jsonschema.Schema  { return &jsonschema.Schema{Type: "number", Description: desc} }
func boolProp(desc string) *jsonschema.Schema { return &jsonschema.Schema{Type: "boolean", Description: desc} }

// RegisterTools wires every method of Service to server as one of
// spec.md §4.L's nine tools, following the teacher's
// registerTools/AddTool pattern in internal/mcp/server.go.
func RegisterTools(server *mcp.Server, svc *Service) {
	server.AddTool(&mcp.Tool{
		Name:        "find_symbol",
		Description: "Exact-name lookup of a symbol, with location, signature, doc preview and a relationship summary.",
		InputSchema: schema(map[string]*jsonschema.Schema{
			"name":     strProp("Exact symbol name"),
			"language": strProp("Restrict to one language (e.g. \"go\", \"rust\")"),
		}, "name"),
	}, handleFindSymbol(svc))

	server.AddTool(&mcp.Tool{
		Name:        "search_symbols",
		Description: "Ranked fuzzy/prefix search across symbol name, signature and doc comment, with kind/module/language/path filters and pagination.",
		InputSchema: schema(map[string]*jsonschema.Schema{
			"query":            strProp("Search text"),
			"limit":            intProp("Max results per page (default 10)"),
			"offset":           intProp("Result offset for pagination"),
			"kind":             strProp("Restrict to one symbol kind (function, struct, method, ...)"),
			"module":           strProp("Restrict to one module path"),
			"language":         strProp("Restrict to one language"),
			"file_pattern":     strProp("Glob the file path must match"),
			"exclude_pattern":  strProp("Glob the file path must not match"),
			"summary_only":     boolProp("Force the one-line-per-result summary rendering"),
		}, "query"),
	}, handleSearchSymbols(svc))

	server.AddTool(&mcp.Tool{
		Name:        "get_symbol_details",
		Description: "Full detail for one symbol: signature, doc, visibility/scope, implementers, methods and callers.",
		InputSchema: schema(map[string]*jsonschema.Schema{
			"name":      strProp("Symbol name"),
			"file_path": strProp("Narrow to the symbol declared in this file"),
			"module":    strProp("Narrow to this module path"),
		}, "name"),
	}, handleGetSymbolDetails(svc))

	server.AddTool(&mcp.Tool{
		Name:        "get_calls",
		Description: "Every function/method a given function calls, qualified with its receiver where known.",
		InputSchema: schema(map[string]*jsonschema.Schema{
			"name": strProp("Function or method name"),
		}, "name"),
	}, handleGetCalls(svc))

	server.AddTool(&mcp.Tool{
		Name:        "find_callers",
		Description: "Every function/method that calls a given function.",
		InputSchema: schema(map[string]*jsonschema.Schema{
			"name": strProp("Function or method name"),
		}, "name"),
	}, handleFindCallers(svc))

	server.AddTool(&mcp.Tool{
		Name:        "analyze_impact",
		Description: "BFS over incoming edges of every kind to find what would be affected by changing a symbol, grouped by relationship.",
		InputSchema: schema(map[string]*jsonschema.Schema{
			"name":      strProp("Symbol name"),
			"max_depth": intProp("Maximum hop count (default 3)"),
		}, "name"),
	}, handleAnalyzeImpact(svc))

	server.AddTool(&mcp.Tool{
		Name:        "semantic_search_docs",
		Description: "Vector search over symbol documentation, ranked by cosine similarity. Errors clearly if semantic search is disabled for this index.",
		InputSchema: schema(map[string]*jsonschema.Schema{
			"query":     strProp("Natural-language query"),
			"limit":     intProp("Max results (default 10)"),
			"threshold": numProp("Minimum cosine similarity in [-1,1]"),
			"language":  strProp("Restrict to one language"),
		}, "query"),
	}, handleSemanticSearchDocs(svc))

	server.AddTool(&mcp.Tool{
		Name:        "semantic_search_with_context",
		Description: "Like semantic_search_docs, plus outgoing calls, callers and a depth-2 impact closure for every function/method hit.",
		InputSchema: schema(map[string]*jsonschema.Schema{
			"query":     strProp("Natural-language query"),
			"limit":     intProp("Max results (default 5)"),
			"threshold": numProp("Minimum cosine similarity in [-1,1]"),
			"language":  strProp("Restrict to one language"),
		}, "query"),
	}, handleSemanticSearchWithContext(svc))

	server.AddTool(&mcp.Tool{
		Name:        "get_index_info",
		Description: "Headline totals, per-kind symbol counts and semantic-search status for the current index.",
		InputSchema: schema(nil),
	}, handleGetIndexInfo(svc))
}

func handleFindSymbol(svc *Service) func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type params struct {
		Name     string `json:"name"`
		Language string `json:"language"`
	}
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var p params
		if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
			return createErrorResponse("find_symbol", err)
		}
		text, err := svc.FindSymbol(ctx, p.Name, p.Language)
		if err != nil {
			return createErrorResponse("find_symbol", err)
		}
		return createTextResponse(text)
	}
}

func handleSearchSymbols(svc *Service) func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type params struct {
		Query          string `json:"query"`
		Limit          int    `json:"limit"`
		Offset         int    `json:"offset"`
		Kind           string `json:"kind"`
		Module         string `json:"module"`
		Language       string `json:"language"`
		FilePattern    string `json:"file_pattern"`
		ExcludePattern string `json:"exclude_pattern"`
		SummaryOnly    bool   `json:"summary_only"`
	}
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var p params
		if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
			return createErrorResponse("search_symbols", err)
		}
		text, err := svc.SearchSymbols(ctx, p.Query, p.Limit, p.Kind, p.Module, p.Language, p.FilePattern, p.ExcludePattern, p.Offset, p.SummaryOnly)
		if err != nil {
			return createErrorResponse("search_symbols", err)
		}
		return createTextResponse(text)
	}
}

func handleGetSymbolDetails(svc *Service) func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type params struct {
		Name     string `json:"name"`
		FilePath string `json:"file_path"`
		Module   string `json:"module"`
	}
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var p params
		if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
			return createErrorResponse("get_symbol_details", err)
		}
		text, err := svc.GetSymbolDetails(ctx, p.Name, p.FilePath, p.Module)
		if err != nil {
			return createErrorResponse("get_symbol_details", err)
		}
		return createTextResponse(text)
	}
}

func handleGetCalls(svc *Service) func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type params struct {
		Name string `json:"name"`
	}
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var p params
		if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
			return createErrorResponse("get_calls", err)
		}
		text, err := svc.GetCalls(ctx, p.Name)
		if err != nil {
			return createErrorResponse("get_calls", err)
		}
		return createTextResponse(text)
	}
}

func handleFindCallers(svc *Service) func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type params struct {
		Name string `json:"name"`
	}
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var p params
		if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
			return createErrorResponse("find_callers", err)
		}
		text, err := svc.FindCallers(ctx, p.Name)
		if err != nil {
			return createErrorResponse("find_callers", err)
		}
		return createTextResponse(text)
	}
}

func handleAnalyzeImpact(svc *Service) func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type params struct {
		Name     string `json:"name"`
		MaxDepth int    `json:"max_depth"`
	}
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var p params
		if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
			return createErrorResponse("analyze_impact", err)
		}
		text, err := svc.AnalyzeImpact(ctx, p.Name, p.MaxDepth)
		if err != nil {
			return createErrorResponse("analyze_impact", err)
		}
		return createTextResponse(text)
	}
}

func handleSemanticSearchDocs(svc *Service) func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type params struct {
		Query     string   `json:"query"`
		Limit     int      `json:"limit"`
		Threshold *float32 `json:"threshold"`
		Language  string   `json:"language"`
	}
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var p params
		if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
			return createErrorResponse("semantic_search_docs", err)
		}
		text, err := svc.SemanticSearchDocs(ctx, p.Query, p.Limit, p.Threshold, p.Language)
		if err != nil {
			return createErrorResponse("semantic_search_docs", err)
		}
		return createTextResponse(text)
	}
}

func handleSemanticSearchWithContext(svc *Service) func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type params struct {
		Query     string   `json:"query"`
		Limit     int      `json:"limit"`
		Threshold *float32 `json:"threshold"`
		Language  string   `json:"language"`
	}
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var p params
		if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
			return createErrorResponse("semantic_search_with_context", err)
		}
		text, err := svc.SemanticSearchWithContext(ctx, p.Query, p.Limit, p.Threshold, p.Language)
		if err != nil {
			return createErrorResponse("semantic_search_with_context", err)
		}
		return createTextResponse(text)
	}
}

func handleGetIndexInfo(svc *Service) func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := svc.GetIndexInfo(ctx, time.Now().Unix())
		if err != nil {
			return createErrorResponse("get_index_info", err)
		}
		return createTextResponse(text)
	}
}

// sessionNotifier adapts a live MCP server session to the Notifier
// interface. ResourceUpdated is only exposed on *mcp.Server (it fans
// out to whichever sessions are subscribed to the URI), so this holds
// both the server and the originating session rather than the session
// alone. The real SDK has no direct equivalent of a resource-list-changed
// push (it only fires internally from AddResource/RemoveResources), so
// ResourceListChanged is a no-op here. See DESIGN.md.
type sessionNotifier struct {
	server  *mcp.Server
	session *mcp.ServerSession
}

// NewSessionNotifier wraps an established client session so indexer
// events reach it as the three notification shapes spec.md §4.L's
// end-to-end scenarios describe.
func NewSessionNotifier(server *mcp.Server, session *mcp.ServerSession) Notifier {
	if server == nil || session == nil {
		return noopNotifier{}
	}
	return &sessionNotifier{server: server, session: session}
}

func (n *sessionNotifier) ResourceUpdated(ctx context.Context, uri string) error {
	return n.server.ResourceUpdated(ctx, &mcp.ResourceUpdatedNotificationParams{URI: uri})
}

func (n *sessionNotifier) ResourceListChanged(ctx context.Context) error {
	return nil
}

func (n *sessionNotifier) LogMessage(ctx context.Context, logger, action, file string) error {
	return n.session.Log(ctx, &mcp.LoggingMessageParams{
		Logger: logger,
		Level:  "info",
		Data:   map[string]any{"action": action, "file": file},
	})
}
