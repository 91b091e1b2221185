package authz_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oilfield-ai/drillquery/internal/authz"
	"github.com/oilfield-ai/drillquery/internal/model"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPolicy(devMode bool) *authz.Policy {
	return authz.NewPolicy(authz.DefaultTable(), devMode, quietLogger())
}

func ptr(s string) *string { return &s }

var allWells = []string{"ZT-102", "ZT-105", "ZT-108", "XY-009", "QQ-1"}

func TestDevModeGrantsEverything(t *testing.T) {
	p := newPolicy(true)
	for _, role := range []string{"admin", "guest", "viewer", "nobody", ""} {
		for _, w := range allWells {
			assert.True(t, p.CheckWellAccess(role, w), "role=%q well=%q", role, w)
		}
		assert.True(t, p.CheckWellAccess(role, ""), "dev mode overrides empty ids")
		assert.True(t, p.CheckBlockAccess(role, "Block-Z"))
	}

	records := []model.Well{
		{ID: "ZT-102", OwnerUserID: ptr("someone-else")},
		{ID: "XY-009", OwnerUserID: ptr("another")},
	}
	got := authz.FilterByPermission(p, records, model.Caller{Role: "guest", UserID: "u9"})
	assert.Equal(t, records, got)
}

func TestAdminSeesEverything(t *testing.T) {
	p := newPolicy(false)
	for _, role := range []string{"admin", "ADMIN", "Admin"} {
		for _, w := range allWells {
			assert.True(t, p.CheckWellAccess(role, w))
		}
		assert.True(t, p.CheckBlockAccess(role, "Block-B"))
	}

	records := []model.Well{
		{ID: "ZT-102", OwnerUserID: ptr("u1")},
		{ID: "ZT-105"},
		{ID: "XY-009", OwnerUserID: ptr("u2")},
	}
	got := authz.FilterByPermission(p, records, model.Caller{Role: "ADMIN", UserID: "root"})
	assert.Equal(t, records, got)
}

func TestFilterIsSubsetInOrder(t *testing.T) {
	p := newPolicy(false)
	records := []model.Well{
		{ID: "XY-009", OwnerUserID: ptr("u2")},
		{ID: "ZT-102", OwnerUserID: ptr("u1")},
		{ID: "ZT-108"},
		{ID: "ZT-105", OwnerUserID: ptr("u3")},
		{ID: "ZT-110", OwnerUserID: ptr("me")},
	}

	for _, role := range []string{"engineer", "viewer", "user", "guest", "mystery"} {
		t.Run(role, func(t *testing.T) {
			caller := model.Caller{Role: role, UserID: "me"}
			got := authz.FilterByPermission(p, records, caller)
			require.LessOrEqual(t, len(got), len(records))

			// Subsequence check: every kept record appears in input order.
			idx := 0
			for _, g := range got {
				for idx < len(records) && records[idx].ID != g.ID {
					idx++
				}
				require.Less(t, idx, len(records), "%s not in input order", g.ID)
				idx++
			}
		})
	}
}

func TestPublicRecordsVisibleToEveryRole(t *testing.T) {
	p := newPolicy(false)
	public := model.Well{ID: "ZT-108"}
	for _, role := range []string{"admin", "engineer", "viewer", "user", "guest", "unknown-role"} {
		got := authz.FilterByPermission(p, []model.Well{public}, model.Caller{Role: role, UserID: "x"})
		assert.Len(t, got, 1, "role %q", role)
		assert.True(t, p.CanView(model.Caller{Role: role}, public), "role %q", role)
	}
}

func TestListedWellVisibleRegardlessOfOwner(t *testing.T) {
	p := newPolicy(false)
	owned := model.Well{ID: "ZT-105", OwnerUserID: ptr("someone-else")}

	assert.True(t, p.CheckWellAccess("engineer", "ZT-105"))
	assert.True(t, p.CanView(model.Caller{Role: "engineer", UserID: "me"}, owned))

	got := authz.FilterByPermission(p, []model.Well{owned}, model.Caller{Role: "engineer", UserID: "me"})
	assert.Len(t, got, 1)
}

func TestUnknownRoleBehavesLikeGuest(t *testing.T) {
	p := newPolicy(false)
	records := []model.Well{
		{ID: "ZT-102", OwnerUserID: ptr("u1")},
		{ID: "ZT-108"},
		{ID: "XY-009", OwnerUserID: ptr("caller")},
	}
	guest := authz.FilterByPermission(p, records, model.Caller{Role: "guest", UserID: "caller"})
	unknown := authz.FilterByPermission(p, records, model.Caller{Role: "astronaut", UserID: "caller"})
	assert.Equal(t, guest, unknown)

	for _, w := range allWells {
		assert.Equal(t, p.CheckWellAccess("guest", w), p.CheckWellAccess("astronaut", w))
	}
	role, _ := p.Entry("astronaut")
	assert.Equal(t, model.RoleGuest, role)
}

func TestEmptyInputsDeny(t *testing.T) {
	p := newPolicy(false)
	assert.False(t, p.CheckWellAccess("engineer", ""))
	assert.False(t, p.CheckWellAccess("admin", "  "))
	assert.False(t, p.CheckBlockAccess("engineer", ""))
}

func TestRoleMatchingIsCaseInsensitive(t *testing.T) {
	p := newPolicy(false)
	assert.True(t, p.CheckWellAccess("ENGINEER", "ZT-102"))
	assert.True(t, p.CheckWellAccess("Engineer", "ZT-105"))
	assert.False(t, p.CheckWellAccess("ENGINEER", "XY-009"))
}

func TestBlockAccess(t *testing.T) {
	p := newPolicy(false)
	assert.True(t, p.CheckBlockAccess("engineer", "Block-A"))
	assert.False(t, p.CheckBlockAccess("engineer", "Block-B"))
	assert.True(t, p.CheckBlockAccess("viewer", "Block-A"))
	assert.False(t, p.CheckBlockAccess("guest", "Block-A"))
	assert.False(t, p.CheckBlockAccess("user", "Block-A"))
}

// Public visibility is a property of the record, not of the role table:
// CheckWellAccess answers from the table alone and CanView adds public and
// owned records. See the ownership model decision in DESIGN.md.
func TestGuestSeesPublicWellThroughRecordCheck(t *testing.T) {
	p := newPolicy(false)
	w1 := model.Well{ID: "W1"}
	assert.False(t, p.CheckWellAccess("guest", "W1"), "guest has no listed wells")
	assert.True(t, p.CanView(model.Caller{Role: "guest"}, w1))
}

// A viewer listed for ZT-102 only cannot open ZT-105.
func TestScenarioViewerWrongWell(t *testing.T) {
	p := newPolicy(false)
	assert.False(t, p.CheckWellAccess("viewer", "ZT-105"))
	assert.False(t, p.CanView(model.Caller{Role: "viewer", UserID: "v1"},
		model.Well{ID: "ZT-105", OwnerUserID: ptr("u1002")}))
}

// A user with an empty list sees public rows and their own rows.
func TestScenarioUserOwnedAndPublic(t *testing.T) {
	p := newPolicy(false)
	wPublic := model.Well{ID: "W_public"}
	wOther := model.Well{ID: "W_owned_by_other", OwnerUserID: ptr("u2")}
	wMine := model.Well{ID: "W_owned_by_caller", OwnerUserID: ptr("u1")}

	got := authz.FilterByPermission(p, []model.Well{wPublic, wOther, wMine},
		model.Caller{Role: "user", UserID: "u1", Email: "u1@example.com"})
	assert.Equal(t, []model.Well{wPublic, wMine}, got)
}

// Dev mode lets a guest open a restricted well.
func TestScenarioDevModeBypass(t *testing.T) {
	p := newPolicy(true)
	assert.True(t, p.CheckWellAccess("guest", "ZT-102"))
}

func TestFilterWritesOneAuditLine(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	p := authz.NewPolicy(authz.DefaultTable(), false, logger)

	records := []model.Well{{ID: "ZT-102", OwnerUserID: ptr("u1")}, {ID: "ZT-108"}}
	got := authz.FilterByPermission(p, records, model.Caller{Role: "guest", UserID: "g1", Email: "g@x.io"})
	require.Len(t, got, 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "authz: filter records", entry["msg"])
	assert.Equal(t, "guest", entry["role"])
	assert.Equal(t, "g1", entry["user_id"])
	assert.Equal(t, "g@x.io", entry["email"])
	assert.EqualValues(t, 2, entry["input"])
	assert.EqualValues(t, 1, entry["output"])
	assert.Equal(t, "", entry["bypass"])
}

func TestFilterAuditMarksBypass(t *testing.T) {
	var buf bytes.Buffer
	p := authz.NewPolicy(authz.DefaultTable(), true, slog.New(slog.NewJSONHandler(&buf, nil)))
	authz.FilterByPermission(p, []model.Well{{ID: "ZT-102"}}, model.Caller{Role: "guest"})
	assert.Contains(t, buf.String(), `"bypass":"dev_mode"`)
}

func TestCapabilities(t *testing.T) {
	p := newPolicy(false)
	assert.True(t, p.CanUseTool("guest", "get_daily_report"))
	assert.False(t, p.CanUseTool("guest", "list_role_permissions"))
	assert.False(t, p.CanUseTool("engineer", "list_role_permissions"))
	assert.True(t, p.CanUseTool("admin", "list_role_permissions"))
	assert.True(t, p.CanUseTool("stranger", "search_wells"), "unknown roles inherit guest read")
	assert.True(t, p.Allows("user", authz.CapWrite))
	assert.False(t, p.Allows("viewer", authz.CapWrite))

	dev := newPolicy(true)
	assert.True(t, dev.CanUseTool("guest", "list_role_permissions"))
}

func TestSummarize(t *testing.T) {
	p := newPolicy(false)
	s := p.Summarize(model.Caller{Role: "VIEWER", UserID: "v1", Email: "v@x.io"})
	assert.Equal(t, model.RoleViewer, s.ResolvedRole)
	assert.Equal(t, []string{"ZT-102"}, s.Wells.IDs)
	assert.Contains(t, s.Tools, "get_daily_report")
	assert.NotContains(t, s.Tools, "list_role_permissions")
	assert.False(t, s.DevMode)

	admin := p.Summarize(model.Caller{Role: "admin"})
	assert.True(t, admin.Wells.All)
	assert.Contains(t, admin.Tools, "list_role_permissions")
	assert.Contains(t, admin.Capabilities, authz.CapAdmin)
}

type fakeWells map[string]model.Well

func (f fakeWells) GetWell(_ context.Context, id string) (model.Well, error) {
	if w, ok := f[id]; ok {
		return w, nil
	}
	return model.Well{}, errNoWell
}

var errNoWell = errors.New("no such well")

func TestAuthorizeWell(t *testing.T) {
	p := newPolicy(false)
	wells := fakeWells{
		"ZT-102": {ID: "ZT-102", OwnerUserID: ptr("u1001")},
		"ZT-105": {ID: "ZT-105", OwnerUserID: ptr("u1002")},
		"ZT-108": {ID: "ZT-108"},
	}
	ctx := context.Background()

	w, denial, err := p.AuthorizeWell(ctx, wells, model.Caller{Role: "viewer"}, "ZT-102")
	require.NoError(t, err)
	assert.Nil(t, denial)
	assert.Equal(t, "ZT-102", w.ID)

	_, denial, err = p.AuthorizeWell(ctx, wells, model.Caller{Role: "viewer"}, "ZT-105")
	require.NoError(t, err)
	require.NotNil(t, denial)
	assert.Equal(t, []string{"ZT-105"}, denial.IDs)
	assert.Contains(t, denial.Message(), "ZT-105")

	_, denial, err = p.AuthorizeWell(ctx, wells, model.Caller{Role: "guest"}, "ZT-108")
	require.NoError(t, err)
	assert.Nil(t, denial, "public well")

	_, denial, err = p.AuthorizeWell(ctx, wells, model.Caller{Role: "user", UserID: "u1002"}, "ZT-105")
	require.NoError(t, err)
	assert.Nil(t, denial, "owner")

	_, denial, err = p.AuthorizeWell(ctx, wells, model.Caller{Role: "admin"}, "ZT-404")
	assert.ErrorIs(t, err, errNoWell)
	assert.Nil(t, denial, "missing is not a denial")
}
