package authz

import (
	"context"

	"github.com/oilfield-ai/drillquery/internal/model"
)

// WellGetter loads a single well. storage.Store satisfies it.
type WellGetter interface {
	GetWell(ctx context.Context, id string) (model.Well, error)
}

// AuthorizeWell loads wellID and decides whether caller may see it, using
// the role table first and then record ownership. A missing well is
// reported through err (storage.ErrNotFound), never as a denial, so callers
// can tell the two apart.
func (p *Policy) AuthorizeWell(ctx context.Context, wells WellGetter, caller model.Caller, wellID string) (model.Well, *Denial, error) {
	w, err := wells.GetWell(ctx, wellID)
	if err != nil {
		return model.Well{}, nil, err
	}
	if !p.CanView(caller, w) {
		p.logger.Info("authz: well access denied",
			"role", caller.Role, "user_id", caller.UserID, "well_id", wellID)
		return model.Well{}, DenyWells(caller.Role, wellID), nil
	}
	return w, nil, nil
}
