// Package authz decides which wells, blocks and tools a caller may reach.
//
// The policy is an immutable value built once at startup from a role table
// and the dev-mode flag. Both the MCP tool layer and the query services take
// a *Policy explicitly so no decision depends on hidden process state.
package authz

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/oilfield-ai/drillquery/internal/model"
)

// Policy answers access questions for a fixed role table.
type Policy struct {
	table   Table
	devMode bool
	logger  *slog.Logger
}

// NewPolicy builds a policy. A nil logger falls back to slog.Default.
// With devMode set every check grants; that must only be enabled for local
// development.
func NewPolicy(table Table, devMode bool, logger *slog.Logger) *Policy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Policy{table: table, devMode: devMode, logger: logger}
}

// DevMode reports whether the permission bypass is active.
func (p *Policy) DevMode() bool { return p.devMode }

// Entry resolves a raw role string to its table entry. Unknown roles resolve
// to the guest entry; the returned role is the one actually used.
func (p *Policy) Entry(role string) (model.Role, RoleEntry) {
	r := model.NormalizeRole(role)
	if e, ok := p.table[r]; ok {
		return r, e
	}
	return model.RoleGuest, p.table[model.RoleGuest]
}

// IsAdmin reports whether the role resolves to an admin-tier entry.
func (p *Policy) IsAdmin(role string) bool {
	_, e := p.Entry(role)
	return e.Tier == TierAdmin
}

// CheckWellAccess reports whether role may read the given well from the role
// table alone. Record ownership is not consulted here; see CanView.
func (p *Policy) CheckWellAccess(role, wellID string) bool {
	if p.devMode {
		return true
	}
	if strings.TrimSpace(wellID) == "" {
		return false
	}
	_, e := p.Entry(role)
	if e.Tier == TierAdmin {
		return true
	}
	return e.Wells.Contains(wellID)
}

// CheckBlockAccess reports whether role may read data for a whole block.
func (p *Policy) CheckBlockAccess(role, block string) bool {
	if p.devMode {
		return true
	}
	if strings.TrimSpace(block) == "" {
		return false
	}
	_, e := p.Entry(role)
	if e.Tier == TierAdmin {
		return true
	}
	return e.Blocks.Contains(block)
}

// CanView reports whether caller may see a single record. On top of the role
// table it admits public records and records the caller owns.
func (p *Policy) CanView(caller model.Caller, rec Record) bool {
	if p.CheckWellAccess(caller.Role, rec.RecordWellID()) {
		return true
	}
	owner := rec.RecordOwner()
	return owner == nil || caller.Owns(owner)
}

// Allows reports whether role carries the capability a tool requires.
func (p *Policy) Allows(role string, c Capability) bool {
	if p.devMode {
		return true
	}
	_, e := p.Entry(role)
	if e.Tier == TierAdmin {
		return true
	}
	return slices.Contains(e.Capabilities, c)
}
