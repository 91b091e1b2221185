package storage

import (
	"fmt"
	"time"

	"github.com/oilfield-ai/drillquery/internal/model"
)

// Fixtures is a self-contained data set that can be loaded into any store.
type Fixtures struct {
	Wells   []model.Well
	Reports []model.DailyReport // NPTEvents are inserted with their report
	Casings []model.CasingProgram
}

// Demo owner ids used by the fixture wells.
const (
	DemoOwnerZhang = "u1001"
	DemoOwnerLi    = "u1002"
	DemoOwnerWang  = "u2001"
)

// DemoFixtures returns the demonstration data set: four wells across two
// blocks, daily reports from 2023-11-01, one lost-circulation incident on
// ZT-102 and three casing runs. ZT-108 is public; the others have owners.
func DemoFixtures() Fixtures {
	day := func(y int, m time.Month, d int) *time.Time {
		t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &t
	}
	owner := func(id, email string) (*string, *string) { return &id, &email }

	zhangID, zhangEmail := owner(DemoOwnerZhang, "zhang@oilfield.example")
	liID, liEmail := owner(DemoOwnerLi, "li@oilfield.example")
	wangID, wangEmail := owner(DemoOwnerWang, "wang@oilfield.example")

	fx := Fixtures{
		Wells: []model.Well{
			{ID: "ZT-102", Name: "中塔-102", Block: "Block-A", TargetDepth: 4500, SpudDate: day(2023, 10, 1),
				Status: model.WellStatusActive, WellType: "Horizontal", Team: "Team-701", Rig: "Rig-50",
				OwnerUserID: zhangID, OwnerEmail: zhangEmail},
			{ID: "ZT-105", Name: "中塔-105", Block: "Block-A", TargetDepth: 4200, SpudDate: day(2023, 10, 5),
				Status: model.WellStatusActive, WellType: "Vertical", Team: "Team-702", Rig: "Rig-51",
				OwnerUserID: liID, OwnerEmail: liEmail},
			{ID: "ZT-108", Name: "中塔-108", Block: "Block-A", TargetDepth: 5000, SpudDate: day(2023, 9, 20),
				Status: model.WellStatusCompleted, WellType: "Directional", Team: "Team-701", Rig: "Rig-50"},
			{ID: "XY-009", Name: "新疆-009", Block: "Block-B", TargetDepth: 5500, SpudDate: day(2023, 9, 15),
				Status: model.WellStatusActive, WellType: "Horizontal", Team: "Team-808", Rig: "Rig-88",
				OwnerUserID: wangID, OwnerEmail: wangEmail},
		},
		Casings: []model.CasingProgram{
			{WellID: "ZT-102", RunNumber: 1, RunDate: day(2023, 10, 5), Size: 13.375, ShoeDepth: 800, CementTop: 0},
			{WellID: "ZT-102", RunNumber: 2, RunDate: day(2023, 10, 20), Size: 9.625, ShoeDepth: 2500, CementTop: 500},
			{WellID: "ZT-105", RunNumber: 1, RunDate: day(2023, 10, 8), Size: 13.375, ShoeDepth: 850, CementTop: 0},
		},
	}

	base := time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)

	// ZT-102: steady drilling with a lost-circulation day on day 6.
	depth := 3000.0
	for i := range 10 {
		npt := i == 5
		progress, rop := 150.0, 25.0
		summary, plan := "Drilling 8.5in section, operations normal.", "Continue drilling"
		if npt {
			progress, rop = 50, 8
			summary, plan = "Drilling 8.5in section, lost circulation encountered, circulating to kill.", "Monitor well, prepare LCM treatment"
		}
		depth += progress
		density := 1.25
		if i >= 5 {
			density = 1.28
		}
		bit := 3
		if i >= 7 {
			bit = 4
		}
		r := model.DailyReport{
			WellID: "ZT-102", ReportDate: base.AddDate(0, 0, i), ReportNo: 25 + i,
			CurrentDepth: depth, Progress: progress,
			MudDensity: density, MudViscosity: 55 + float64(i)*0.5, MudPH: 9.5,
			AvgROP: rop, BitNumber: bit,
			OperationSummary: fmt.Sprintf("%s Depth %.0f m.", summary, depth),
			NextPlan:         plan,
		}
		if npt {
			r.NPTEvents = []model.NPTEvent{{
				Category:    "Lost Circulation",
				Duration:    12.5,
				Severity:    "High",
				Description: "Losses at 3750 m, 15 m3/h, pumped LCM pill.",
			}}
		}
		fx.Reports = append(fx.Reports, r)
	}

	// ZT-105: fast, trouble-free.
	for i := range 10 {
		d := 3200 + float64(i)*180
		fx.Reports = append(fx.Reports, model.DailyReport{
			WellID: "ZT-105", ReportDate: base.AddDate(0, 0, i), ReportNo: 30 + i,
			CurrentDepth: d, Progress: 180,
			MudDensity: 1.22, MudViscosity: 52, MudPH: 9.8,
			AvgROP: 30, BitNumber: 2,
			OperationSummary: fmt.Sprintf("Drilling ahead, high ROP, stable formation. Depth %.0f m.", d),
			NextPlan:         "Continue drilling",
		})
	}

	// ZT-108: completion phase.
	for i := range 5 {
		d := 4800 + float64(i)*40
		fx.Reports = append(fx.Reports, model.DailyReport{
			WellID: "ZT-108", ReportDate: base.AddDate(0, 0, i), ReportNo: 80 + i,
			CurrentDepth: d, Progress: 40,
			MudDensity: 1.30, MudViscosity: 60, MudPH: 9.3,
			AvgROP: 15, BitNumber: 5,
			OperationSummary: fmt.Sprintf("Completion operations. Depth %.0f m.", d),
			NextPlan:         "Prepare to run casing",
		})
	}

	// XY-009: Block-B.
	for i := range 5 {
		d := 2500 + float64(i)*120
		fx.Reports = append(fx.Reports, model.DailyReport{
			WellID: "XY-009", ReportDate: base.AddDate(0, 0, i), ReportNo: 15 + i,
			CurrentDepth: d, Progress: 120,
			MudDensity: 1.18, MudViscosity: 48, MudPH: 10,
			AvgROP: 28, BitNumber: 1,
			OperationSummary: fmt.Sprintf("Drilling normally. Depth %.0f m.", d),
			NextPlan:         "Continue drilling",
		})
	}
	return fx
}
