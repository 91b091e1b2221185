package authz

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oilfield-ai/drillquery/internal/model"
)

// Tier distinguishes admin entries, which bypass list checks, from the rest.
type Tier string

const (
	TierAdmin    Tier = "admin"
	TierStandard Tier = "standard"
)

// Wildcard is the list value granting every well or block.
const Wildcard = "*"

// AccessList is either the wildcard or an explicit set of identifiers.
// In YAML it is written as "*" or as a sequence of strings.
type AccessList struct {
	All bool
	IDs []string
}

// AllowAll returns the wildcard list.
func AllowAll() AccessList { return AccessList{All: true} }

// AllowOnly returns an explicit list.
func AllowOnly(ids ...string) AccessList { return AccessList{IDs: ids} }

// Contains reports whether id is granted. Matching is exact except for
// surrounding whitespace, which never appears in canonical ids.
func (l AccessList) Contains(id string) bool {
	if l.All {
		return true
	}
	return slices.Contains(l.IDs, strings.TrimSpace(id))
}

// UnmarshalYAML accepts "*" or a string sequence.
func (l *AccessList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value != Wildcard {
			return fmt.Errorf("authz: access list scalar must be %q, got %q", Wildcard, node.Value)
		}
		*l = AllowAll()
		return nil
	case yaml.SequenceNode:
		var ids []string
		if err := node.Decode(&ids); err != nil {
			return fmt.Errorf("authz: decode access list: %w", err)
		}
		if slices.Contains(ids, Wildcard) {
			*l = AllowAll()
			return nil
		}
		*l = AllowOnly(ids...)
		return nil
	default:
		return fmt.Errorf("authz: access list must be %q or a list (line %d)", Wildcard, node.Line)
	}
}

// MarshalYAML writes the list back in the same shape it is read.
func (l AccessList) MarshalYAML() (any, error) {
	if l.All {
		return Wildcard, nil
	}
	if l.IDs == nil {
		return []string{}, nil
	}
	return l.IDs, nil
}

// MarshalJSON mirrors the YAML shape for tool output.
func (l AccessList) MarshalJSON() ([]byte, error) {
	if l.All {
		return []byte(`"*"`), nil
	}
	if len(l.IDs) == 0 {
		return []byte(`[]`), nil
	}
	return json.Marshal(l.IDs)
}

// RoleEntry is the permission row for one role.
type RoleEntry struct {
	Tier         Tier         `yaml:"tier" json:"tier"`
	Description  string       `yaml:"description,omitempty" json:"description,omitempty"`
	Wells        AccessList   `yaml:"wells" json:"wells"`
	Blocks       AccessList   `yaml:"blocks" json:"blocks"`
	Capabilities []Capability `yaml:"capabilities" json:"capabilities"`
}

// Table maps canonical role names to their entries. It must contain a guest
// entry, which unknown roles fall back to.
type Table map[model.Role]RoleEntry

// DefaultTable is the built-in role table used when no file is configured.
func DefaultTable() Table {
	return Table{
		model.RoleAdmin: {
			Tier:         TierAdmin,
			Description:  "Full access to all wells and blocks",
			Wells:        AllowAll(),
			Blocks:       AllowAll(),
			Capabilities: []Capability{CapRead, CapWrite, CapDelete, CapAdmin},
		},
		model.RoleEngineer: {
			Tier:         TierStandard,
			Description:  "Drilling engineer for Block-A development wells",
			Wells:        AllowOnly("ZT-102", "ZT-105"),
			Blocks:       AllowOnly("Block-A"),
			Capabilities: []Capability{CapRead, CapWrite},
		},
		model.RoleViewer: {
			Tier:         TierStandard,
			Description:  "Read-only access to ZT-102",
			Wells:        AllowOnly("ZT-102"),
			Blocks:       AllowOnly("Block-A"),
			Capabilities: []Capability{CapRead},
		},
		model.RoleUser: {
			Tier:         TierStandard,
			Description:  "Public and self-owned records",
			Wells:        AllowOnly(),
			Blocks:       AllowOnly(),
			Capabilities: []Capability{CapRead, CapWrite},
		},
		model.RoleGuest: {
			Tier:         TierStandard,
			Description:  "Public records only",
			Wells:        AllowOnly(),
			Blocks:       AllowOnly(),
			Capabilities: []Capability{CapRead},
		},
	}
}

type tableFile struct {
	Roles map[string]RoleEntry `yaml:"roles"`
}

// ParseTable decodes a YAML role table. Role names are normalized, a missing
// tier defaults to standard, and a guest entry is required.
func ParseTable(data []byte) (Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("authz: parse role table: %w", err)
	}
	t := make(Table, len(f.Roles))
	for name, e := range f.Roles {
		r := model.NormalizeRole(name)
		if _, dup := t[r]; dup {
			return nil, fmt.Errorf("authz: role %q defined more than once", r)
		}
		if e.Tier == "" {
			e.Tier = TierStandard
		}
		if e.Tier != TierAdmin && e.Tier != TierStandard {
			return nil, fmt.Errorf("authz: role %q has unknown tier %q", r, e.Tier)
		}
		for _, c := range e.Capabilities {
			if !c.Valid() {
				return nil, fmt.Errorf("authz: role %q has unknown capability %q", r, c)
			}
		}
		t[r] = e
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadTable reads a YAML role table from path.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("authz: read role table: %w", err)
	}
	return ParseTable(data)
}

// Validate checks the invariants every table must satisfy.
func (t Table) Validate() error {
	if _, ok := t[model.RoleGuest]; !ok {
		return fmt.Errorf("authz: role table must define %q", model.RoleGuest)
	}
	return nil
}

// Roles returns the table's role names in sorted order.
func (t Table) Roles() []model.Role {
	roles := make([]model.Role, 0, len(t))
	for r := range t {
		roles = append(roles, r)
	}
	slices.Sort(roles)
	return roles
}
