package stats

import (
	"github.com/youpai/youpai/pkg/model"
)

// CoverageMetrics 班表覆盖指标
type CoverageMetrics struct {
	AvailableSlots int                          `json:"available_slots"` // 全周开放班表数
	StaffedSlots   int                          `json:"staffed_slots"`   // 实际排入的开放班表数
	FillRate       float64                      `json:"fill_rate"`       // 覆盖率 (%)
	DailyCoverage  [model.NumDays]DayCoverage   `json:"daily_coverage"`  // 每日覆盖情况
}

// DayCoverage 每日覆盖情况
type DayCoverage struct {
	Day        string  `json:"day"`
	Available  int     `json:"available"`
	Staffed    int     `json:"staffed"`
	TotalHours float64 `json:"total_hours"`
}

// CoverageAnalyzer 班表覆盖分析器
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer 创建班表覆盖分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// Analyze 从原始计划与排班解统计每日及全周的班表覆盖情况
func (a *CoverageAnalyzer) Analyze(plan *model.Plan, sol *model.Solution) *CoverageMetrics {
	metrics := &CoverageMetrics{}

	for d := 0; d < model.NumDays; d++ {
		day := DayCoverage{Day: model.DayNames[d]}
		for s := 0; s < model.NumSchedules; s++ {
			if plan.ScheduleAvailable(d, s) {
				day.Available++
			}
			for e := 0; e < model.NumEmployees; e++ {
				if sol.Assigned(e, s, d) {
					day.Staffed++
					day.TotalHours += plan.Hours[d][s]
				}
			}
		}
		metrics.AvailableSlots += day.Available
		metrics.StaffedSlots += day.Staffed
		metrics.DailyCoverage[d] = day
	}

	if metrics.AvailableSlots > 0 {
		metrics.FillRate = float64(metrics.StaffedSlots) / float64(metrics.AvailableSlots) * 100
	}

	return metrics
}
