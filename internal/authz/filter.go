package authz

import "github.com/oilfield-ai/drillquery/internal/model"

// Record is any row that can be attributed to a well and an optional owner.
type Record interface {
	RecordWellID() string
	RecordOwner() *string
}

// FilterByPermission returns the subset of records caller may see, in input
// order. Dev mode, admin tier and a wildcard well list return the input
// untouched; otherwise a record is kept when its well is in the caller's list,
// when it is public, or when the caller owns it. Every call writes one audit
// log line.
func FilterByPermission[T Record](p *Policy, records []T, caller model.Caller) []T {
	resolved, entry := p.Entry(caller.Role)

	bypass := ""
	switch {
	case p.devMode:
		bypass = "dev_mode"
	case entry.Tier == TierAdmin:
		bypass = "admin"
	case entry.Wells.All:
		bypass = "wildcard"
	}
	if bypass != "" {
		p.audit(caller, resolved, len(records), len(records), bypass)
		return records
	}

	kept := make([]T, 0, len(records))
	for _, r := range records {
		owner := r.RecordOwner()
		if entry.Wells.Contains(r.RecordWellID()) || owner == nil || caller.Owns(owner) {
			kept = append(kept, r)
		}
	}
	p.audit(caller, resolved, len(records), len(kept), bypass)
	return kept
}

func (p *Policy) audit(caller model.Caller, resolved model.Role, in, out int, bypass string) {
	p.logger.Info("authz: filter records",
		"role", caller.Role,
		"resolved_role", string(resolved),
		"user_id", caller.UserID,
		"email", caller.Email,
		"input", in,
		"output", out,
		"bypass", bypass)
}
