package authz

import (
	"slices"

	"github.com/oilfield-ai/drillquery/internal/model"
)

// Capability is a coarse permission a role carries.
type Capability string

const (
	CapRead   Capability = "read"
	CapWrite  Capability = "write"
	CapDelete Capability = "delete"
	CapAdmin  Capability = "admin"
)

// Valid reports whether c is one of the known capabilities.
func (c Capability) Valid() bool {
	switch c {
	case CapRead, CapWrite, CapDelete, CapAdmin:
		return true
	}
	return false
}

// ToolCapabilities maps each MCP tool to the capability it requires. Tools
// not listed require CapRead.
var ToolCapabilities = map[string]Capability{
	"lookup_terminology":          CapRead,
	"plan_data_retrieval":         CapRead,
	"search_wells":                CapRead,
	"get_well_statistics":         CapRead,
	"get_well_summary":            CapRead,
	"get_well_casing":             CapRead,
	"get_daily_report":            CapRead,
	"analyze_npt_events":          CapRead,
	"compare_wells_overview":      CapRead,
	"compare_drilling_pace":       CapRead,
	"compare_npt_statistics":      CapRead,
	"get_period_drilling_summary": CapRead,
	"get_block_period_summary":    CapRead,
	"track_mud_properties":        CapRead,
	"whoami":                      CapRead,
	"list_role_permissions":       CapAdmin,
}

// ToolCapability returns the capability tool requires.
func ToolCapability(tool string) Capability {
	if c, ok := ToolCapabilities[tool]; ok {
		return c
	}
	return CapRead
}

// CanUseTool reports whether role may call tool.
func (p *Policy) CanUseTool(role, tool string) bool {
	return p.Allows(role, ToolCapability(tool))
}

// Summary describes what a caller can reach. It is returned verbatim by the
// whoami tool.
type Summary struct {
	Role         string       `json:"role"`
	ResolvedRole model.Role   `json:"resolved_role"`
	UserID       string       `json:"user_id"`
	Email        string       `json:"email"`
	Tier         Tier         `json:"tier"`
	Wells        AccessList   `json:"wells"`
	Blocks       AccessList   `json:"blocks"`
	Capabilities []Capability `json:"capabilities"`
	Tools        []string     `json:"tools"`
	DevMode      bool         `json:"dev_mode"`
}

// Summarize builds the permission summary for caller.
func (p *Policy) Summarize(caller model.Caller) Summary {
	resolved, e := p.Entry(caller.Role)
	tools := make([]string, 0, len(ToolCapabilities))
	for name := range ToolCapabilities {
		if p.CanUseTool(caller.Role, name) {
			tools = append(tools, name)
		}
	}
	slices.Sort(tools)
	caps := e.Capabilities
	if e.Tier == TierAdmin || p.devMode {
		caps = []Capability{CapRead, CapWrite, CapDelete, CapAdmin}
	}
	return Summary{
		Role:         caller.Role,
		ResolvedRole: resolved,
		UserID:       caller.UserID,
		Email:        caller.Email,
		Tier:         e.Tier,
		Wells:        e.Wells,
		Blocks:       e.Blocks,
		Capabilities: caps,
		Tools:        tools,
		DevMode:      p.devMode,
	}
}

// Table returns a copy of the role table.
func (p *Policy) Table() Table {
	t := make(Table, len(p.table))
	for r, e := range p.table {
		t[r] = e
	}
	return t
}
