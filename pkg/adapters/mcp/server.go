package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/canonry/canonry"
	"github.com/canonry/canonry/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
)

// Engine defines the interface required by the MCP server to reach the
// validation core.
type Engine interface {
	ValidatePathway(ctx context.Context, pw *domain.Pathway, ectx domain.EvaluationContext) (*domain.ValidationReport, error)
	ValidateConditionGraph(ctx context.Context, fandomID string, proposed *domain.Edge) (*domain.GraphAudit, error)
	EvaluateConditions(ctx context.Context, fandomID, blockID string, ectx domain.EvaluationContext) (*domain.ConditionReport, error)
	AuditFandom(ctx context.Context, fandomID string) (*domain.ValidationReport, error)
	Fandoms(ctx context.Context) ([]domain.Fandom, error)
}

var _ Engine = (*canonry.Engine)(nil)

// Server wraps the engine and exposes it as an MCP server, so assistants can
// validate pathways and probe dependency graphs as tools.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance.
func NewServer(engine Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("canonry-mcp", strings.TrimSpace(canonry.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: validate_pathway
	validateTool := mcp.NewTool("validate_pathway",
		mcp.WithDescription("Validate a tag and plot block combination against a fandom's rules. Findings never block the call; read the report."),
		mcp.WithString("fandom_id", mcp.Required(), mcp.Description("The fandom the pathway belongs to")),
		mcp.WithString("tag_ids", mcp.Description("JSON array of selected tag IDs (optional)")),
		mcp.WithString("block_ids", mcp.Description("JSON array of selected plot block IDs (optional)")),
		mcp.WithString("context", mcp.Description("JSON object with tags, completed and metadata (optional)")),
		mcp.WithOutputSchema[domain.ValidationReport](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidatePathway))

	// TOOL: audit_graph
	graphTool := mcp.NewTool("audit_graph",
		mcp.WithDescription("Audit a fandom's plot block dependency graph for cycles. Pass from/to to test a proposed edge without storing it."),
		mcp.WithString("fandom_id", mcp.Required(), mcp.Description("The fandom whose graph to audit")),
		mcp.WithString("from", mcp.Description("Source block ID of a proposed edge (optional)")),
		mcp.WithString("to", mcp.Description("Target block ID of a proposed edge (optional)")),
		mcp.WithOutputSchema[domain.GraphAudit](),
	)
	s.mcpServer.AddTool(graphTool, mcp.NewStructuredToolHandler(s.handleAuditGraph))

	// TOOL: evaluate_conditions
	conditionsTool := mcp.NewTool("evaluate_conditions",
		mcp.WithDescription("Evaluate a plot block's unlock conditions against an evaluation context."),
		mcp.WithString("fandom_id", mcp.Required(), mcp.Description("The fandom the block belongs to")),
		mcp.WithString("block_id", mcp.Required(), mcp.Description("The plot block whose conditions to evaluate")),
		mcp.WithString("context", mcp.Description("JSON object with tags, completed and metadata (optional)")),
		mcp.WithOutputSchema[domain.ConditionReport](),
	)
	s.mcpServer.AddTool(conditionsTool, mcp.NewStructuredToolHandler(s.handleEvaluateConditions))

	// TOOL: audit_catalog
	auditTool := mcp.NewTool("audit_catalog",
		mcp.WithDescription("Run the structural audit over a fandom's whole catalog: unknown references, duplicates, dangling parents, cycles."),
		mcp.WithString("fandom_id", mcp.Required(), mcp.Description("The fandom to audit")),
		mcp.WithOutputSchema[domain.ValidationReport](),
	)
	s.mcpServer.AddTool(auditTool, mcp.NewStructuredToolHandler(s.handleAuditCatalog))

	// TOOL: list_fandoms
	s.mcpServer.AddTool(mcp.NewTool("list_fandoms",
		mcp.WithDescription("List the fandoms the engine currently serves."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fandoms, err := s.engine.Fandoms(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(fandoms)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleValidatePathway(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.ValidationReport, error) {
	fandomID, _ := args["fandom_id"].(string)
	pw := &domain.Pathway{
		FandomID: fandomID,
		TagIDs:   decodeStringList(args["tag_ids"]),
		BlockIDs: decodeStringList(args["block_ids"]),
	}

	ectx := decodeEvaluationContext(args)

	report, err := s.engine.ValidatePathway(ctx, pw, ectx)
	if err != nil {
		return domain.ValidationReport{}, fmt.Errorf("validate failed: %w", err)
	}
	return *report, nil
}

func (s *Server) handleAuditGraph(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.GraphAudit, error) {
	fandomID, _ := args["fandom_id"].(string)
	from, _ := args["from"].(string)
	to, _ := args["to"].(string)

	var proposed *domain.Edge
	if from != "" || to != "" {
		if from == "" || to == "" {
			return domain.GraphAudit{}, fmt.Errorf("a proposed edge requires both from and to")
		}
		proposed = &domain.Edge{From: from, To: to}
	}

	audit, err := s.engine.ValidateConditionGraph(ctx, fandomID, proposed)
	if err != nil {
		return domain.GraphAudit{}, fmt.Errorf("graph audit failed: %w", err)
	}
	return *audit, nil
}

func (s *Server) handleEvaluateConditions(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.ConditionReport, error) {
	fandomID, _ := args["fandom_id"].(string)
	blockID, _ := args["block_id"].(string)

	ectx := decodeEvaluationContext(args)

	report, err := s.engine.EvaluateConditions(ctx, fandomID, blockID, ectx)
	if err != nil {
		return domain.ConditionReport{}, fmt.Errorf("evaluate failed: %w", err)
	}
	return *report, nil
}

func (s *Server) handleAuditCatalog(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.ValidationReport, error) {
	fandomID, _ := args["fandom_id"].(string)

	report, err := s.engine.AuditFandom(ctx, fandomID)
	if err != nil {
		return domain.ValidationReport{}, fmt.Errorf("audit failed: %w", err)
	}
	return *report, nil
}

// decodeStringList accepts either a JSON-encoded string or an inline array.
// Clients differ on which they send, so we take both.
func decodeStringList(v interface{}) []string {
	var out []string
	switch val := v.(type) {
	case string:
		_ = json.Unmarshal([]byte(val), &out)
	case []interface{}:
		_ = mapstructure.Decode(val, &out)
	}
	return out
}

// decodeEvaluationContext parses the optional "context" argument, given as a
// JSON-encoded string or an inline object. Malformed input degrades to an
// empty context rather than failing the tool call.
func decodeEvaluationContext(args map[string]interface{}) domain.EvaluationContext {
	var ectx domain.EvaluationContext
	switch val := args["context"].(type) {
	case string:
		_ = json.Unmarshal([]byte(val), &ectx)
	case map[string]interface{}:
		_ = mapstructure.Decode(val, &ectx)
	}
	return ectx
}

func (s *Server) registerResources() {
	// EXPOSE: canonry://fandoms
	s.mcpServer.AddResource(mcp.NewResource("canonry://fandoms", "Served Fandoms",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		fandoms, err := s.engine.Fandoms(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list fandoms: %w", err)
		}
		jsonBytes, _ := json.Marshal(fandoms)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "canonry://fandoms",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
