package authz

import (
	"fmt"
	"strings"
)

// Denial is a permission refusal. It is a value, not an error: callers turn
// it into a user-facing message.
type Denial struct {
	Role     string   `json:"role"`
	Resource string   `json:"resource"`
	IDs      []string `json:"ids"`
}

// Message renders the denial for display.
func (d Denial) Message() string {
	return fmt.Sprintf("permission denied: role %q cannot access %s %s",
		d.Role, d.Resource, strings.Join(d.IDs, ", "))
}

// DenyWells builds a denial for one or more wells.
func DenyWells(role string, ids ...string) *Denial {
	return &Denial{Role: role, Resource: "well", IDs: ids}
}

// DenyBlock builds a denial for a block.
func DenyBlock(role, block string) *Denial {
	return &Denial{Role: role, Resource: "block", IDs: []string{block}}
}

// DenyTool builds a denial for a tool the role lacks the capability for.
func DenyTool(role, tool string) *Denial {
	return &Denial{Role: role, Resource: "tool", IDs: []string{tool}}
}
