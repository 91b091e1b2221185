package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/oilfield-ai/drillquery/internal/ctxutil"
	"github.com/oilfield-ai/drillquery/internal/glossary"
)

const (
	uriSession  = "drillquery://session/current"
	uriWells    = "drillquery://wells"
	uriGlossary = "drillquery://glossary"
	wellPrefix  = "drillquery://well/"
)

func (s *Server) registerResources() {
	// drillquery://session/current: who the server thinks the caller is.
	s.mcpServer.AddResource(
		mcplib.NewResource(
			uriSession,
			"Current Session",
			mcplib.WithResourceDescription("Caller identity, resolved role and reachable wells, blocks and tools"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleSessionCurrent,
	)

	// drillquery://wells: wells visible to the caller.
	s.mcpServer.AddResource(
		mcplib.NewResource(
			uriWells,
			"Visible Wells",
			mcplib.WithResourceDescription("Every well the caller may read"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleWells,
	)

	// drillquery://glossary: the terminology dictionary.
	s.mcpServer.AddResource(
		mcplib.NewResource(
			uriGlossary,
			"Drilling Glossary",
			mcplib.WithResourceDescription("Bilingual drilling terminology with related tools"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleGlossary,
	)

	// drillquery://well/{id}/summary: one well's profile.
	s.mcpServer.AddResourceTemplate(
		mcplib.NewResourceTemplate(
			wellPrefix+"{id}/summary",
			"Well Summary",
			mcplib.WithTemplateDescription("Profile and latest depth of one well"),
			mcplib.WithTemplateMIMEType("application/json"),
		),
		s.handleWellResource,
	)
}

func (s *Server) handleSessionCurrent(ctx context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	return jsonResource(uriSession, s.policy.Summarize(ctxutil.CallerFromContext(ctx)))
}

func (s *Server) handleWells(ctx context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	caller := ctxutil.CallerFromContext(ctx)
	wells, err := s.drilling.SearchWells(ctx, caller, "", "All", 0)
	if err != nil {
		return nil, fmt.Errorf("mcp: wells resource: %w", err)
	}
	owners := s.showOwners(caller)
	out := make([]map[string]any, len(wells))
	for i, w := range wells {
		out[i] = compactWell(w, owners)
	}
	return jsonResource(uriWells, out)
}

func (s *Server) handleGlossary(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	return jsonResource(uriGlossary, glossary.All())
}

func (s *Server) handleWellResource(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	uri := request.Params.URI
	id, err := parseWellSummaryURI(uri)
	if err != nil {
		return nil, err
	}

	caller := ctxutil.CallerFromContext(ctx)
	sum, ref, err := s.drilling.WellSummary(ctx, caller, id)
	if err != nil {
		return nil, fmt.Errorf("mcp: well resource: %w", err)
	}
	if ref != nil {
		return nil, fmt.Errorf("mcp: %s", ref.Message)
	}
	return jsonResource(uri, compactSummary(sum, s.showOwners(caller)))
}

// parseWellSummaryURI extracts the well id from drillquery://well/{id}/summary.
func parseWellSummaryURI(uri string) (string, error) {
	id, ok := strings.CutPrefix(uri, wellPrefix)
	if ok {
		id, ok = strings.CutSuffix(id, "/summary")
	}
	if !ok {
		return "", fmt.Errorf("mcp: invalid well summary URI: %s", uri)
	}
	id, err := url.PathUnescape(id)
	if err != nil {
		return "", fmt.Errorf("mcp: invalid well summary URI: %w", err)
	}
	if id == "" {
		return "", fmt.Errorf("mcp: invalid well summary URI: empty well id")
	}
	if strings.Contains(id, "/") {
		return "", fmt.Errorf("mcp: invalid well summary URI: well id contains '/'")
	}
	return id, nil
}

func jsonResource(uri string, v any) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal %s: %w", uri, err)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
