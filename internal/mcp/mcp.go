// Package mcp implements the Model Context Protocol server for drillquery.
//
// Every tool reads the caller that the transport placed in the context,
// checks the role's capability for the tool, and delegates to the query
// services. Permission refusals and bad input come back as IsError tool
// results; only infrastructure failures surface as such too, with the
// detail logged rather than shown.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/oilfield-ai/drillquery/internal/authz"
	"github.com/oilfield-ai/drillquery/internal/ctxutil"
	"github.com/oilfield-ai/drillquery/internal/model"
	"github.com/oilfield-ai/drillquery/internal/service/dailyreport"
	"github.com/oilfield-ai/drillquery/internal/service/drilling"
	"github.com/oilfield-ai/drillquery/internal/telemetry"
)

// planWindow is how long a plan_data_retrieval call counts as recent when
// nudging comparison callers.
const planWindow = 30 * time.Minute

// Server wraps the MCP server with the drilling query services.
type Server struct {
	mcpServer *mcpserver.MCPServer
	drilling  *drilling.Service
	gate      *dailyreport.Gate
	policy    *authz.Policy
	logger    *slog.Logger
	metrics   *telemetry.ToolMetrics
	planned   *planTracker
}

// New creates and configures a new MCP server with all tools, resources
// and prompts.
func New(svc *drilling.Service, gate *dailyreport.Gate, logger *slog.Logger, version string) *Server {
	s := &Server{
		drilling: svc,
		gate:     gate,
		policy:   svc.Policy(),
		logger:   logger,
		metrics:  telemetry.NewToolMetrics(),
		planned:  newPlanTracker(planWindow),
	}

	s.mcpServer = mcpserver.NewMCPServer(
		"drillquery",
		version,
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithPromptCapabilities(true),
		mcpserver.WithInstructions(serverInstructions),
	)

	s.registerResources()
	s.registerTools()
	s.registerPrompts()

	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

const serverInstructions = `drillquery answers questions about oilfield drilling records: wells, daily drilling reports, NPT events, casing programs and mud properties.

Every answer is limited to the wells your role may see. A permission error means the data exists but is not yours to read; say so rather than guessing.

For daily reports never assume a date. If the user says "latest" or gives no date, call get_daily_report without a date and let the user choose from the listed report dates.

Well ids accept field shorthand such as "中102" or "102井". Use lookup_terminology for unfamiliar drilling slang and plan_data_retrieval when unsure which tool to call.`

// toolFunc is the body of a tool. A non-nil refusal is rendered as an
// IsError result; a non-nil error is logged and reported generically.
type toolFunc func(ctx context.Context, caller model.Caller, req mcplib.CallToolRequest) (any, *drilling.Refusal, error)

// tool wraps fn with the capability check, audit logging, tracing and
// metrics shared by every tool.
func (s *Server) tool(name string, fn toolFunc) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		caller := ctxutil.CallerFromContext(ctx)
		start := time.Now()
		ctx, span := telemetry.Tracer("drillquery/mcp").Start(ctx, "mcp.tool."+name)
		defer span.End()
		span.SetAttributes(
			attribute.String("tool", name),
			attribute.String("role", caller.Role),
		)

		s.logger.Info("mcp: tool call",
			"tool", name,
			"role", caller.Role,
			"user_id", caller.UserID,
			"request_id", ctxutil.RequestIDFromContext(ctx),
			"args", req.GetArguments())

		var (
			result  *mcplib.CallToolResult
			outcome string
		)
		if !s.policy.CanUseTool(caller.Role, name) {
			d := authz.DenyTool(caller.Role, name)
			result, outcome = refusalResult(&drilling.Refusal{Kind: drilling.RefusalDenied, Message: d.Message(), Denial: d}), "denied"
		} else {
			out, ref, err := fn(ctx, caller, req)
			switch {
			case err != nil:
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				s.logger.Error("mcp: tool failed", "tool", name, "error", err)
				result, outcome = errorResult(fmt.Sprintf("%s failed: internal error", name)), "error"
			case ref != nil:
				result, outcome = refusalResult(ref), refusalOutcome(ref.Kind)
			default:
				result, outcome = jsonResult(out), "ok"
			}
		}

		elapsed := time.Since(start)
		s.metrics.Record(ctx, name, caller.Role, outcome, elapsed)
		s.logger.Info("mcp: tool done",
			"tool", name,
			"role", caller.Role,
			"user_id", caller.UserID,
			"outcome", outcome,
			"duration_ms", elapsed.Milliseconds())
		return result, nil
	}
}

func refusalOutcome(k drilling.RefusalKind) string {
	switch k {
	case drilling.RefusalDenied:
		return "denied"
	case drilling.RefusalNotFound:
		return "not_found"
	}
	return "invalid"
}

func jsonResult(v any) *mcplib.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("failed to encode result: %v", err))
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: string(data)},
		},
	}
}

func refusalResult(ref *drilling.Refusal) *mcplib.CallToolResult {
	res := jsonResult(ref)
	res.IsError = true
	return res
}

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
