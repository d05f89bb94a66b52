// Package validator 提供排班解的体检与审计
package validator

import (
	"fmt"

	"github.com/youpai/youpai/pkg/model"
)

// IssueType 审计问题类型
type IssueType string

const (
	// IssueDoubleBooking 同一员工同日被排入多个班表
	IssueDoubleBooking IssueType = "double_booking"
	// IssueDemandShortfall 开放班表当日排入人数不等于1
	IssueDemandShortfall IssueType = "demand_shortfall"
	// IssueShiftCapExceeded 员工周班次数超过上限
	IssueShiftCapExceeded IssueType = "shift_cap_exceeded"
	// IssueHourCapExceeded 员工周工时超过上限
	IssueHourCapExceeded IssueType = "hour_cap_exceeded"
)

// Issue 审计问题
type Issue struct {
	Type     IssueType `json:"type"`
	Day      int       `json:"day"`      // -1 表示与日期无关
	Employee int       `json:"employee"` // -1 表示与员工无关
	Schedule int       `json:"schedule"` // -1 表示与班表无关
	Message  string    `json:"message"`
}

// Report 体检报告
//
// Violations 对应选用了全零成本列的班表，是体检的核心结论；
// Issues 是对模型硬约束的防御性复核，正常情况下恒为空。
type Report struct {
	Usage        [model.NumDays][model.NumSchedules]int `json:"usage"`        // 每日每班表排入人数
	Availability [model.NumDays][model.NumSchedules]int `json:"availability"` // 每日每班表开放标志
	DayCounts    [model.NumDays][model.NumEmployees]int `json:"day_counts"`   // 每日每员工班次数
	WeeklyHours  [model.NumEmployees]float64            `json:"weekly_hours"` // 每员工周工时
	WeeklyShifts [model.NumEmployees]int                `json:"weekly_shifts"`
	HourCaps     [model.NumEmployees]float64            `json:"hour_caps"`
	Violations   []model.Violation                      `json:"violations"`
	Issues       []Issue                                `json:"issues"`
}

// Clean 返回报告是否既无违规也无审计问题
func (r *Report) Clean() bool {
	return len(r.Violations) == 0 && len(r.Issues) == 0
}

// CheckerConfig 体检配置
type CheckerConfig struct {
	// HourEpsilon 工时上限比较的浮点容差，用于吸收系数缩放取整带来的误差
	HourEpsilon float64
}

// DefaultCheckerConfig 返回默认体检配置
func DefaultCheckerConfig() *CheckerConfig {
	return &CheckerConfig{
		HourEpsilon: 0.005, // 覆盖缩放因子1000下一周内的取整误差
	}
}

// Checker 解体检器
type Checker struct {
	config *CheckerConfig
}

// NewChecker 创建解体检器，config为nil时使用默认配置
func NewChecker(config *CheckerConfig) *Checker {
	if config == nil {
		config = DefaultCheckerConfig()
	}
	return &Checker{config: config}
}

// Check 对排班解做全面体检
func (c *Checker) Check(plan *model.Plan, sol *model.Solution) *Report {
	report := &Report{
		Violations: make([]model.Violation, 0),
		Issues:     make([]Issue, 0),
	}

	// 汇总排班使用情况
	for d := 0; d < model.NumDays; d++ {
		for s := 0; s < model.NumSchedules; s++ {
			if plan.ScheduleAvailable(d, s) {
				report.Availability[d][s] = 1
			}
			for e := 0; e < model.NumEmployees; e++ {
				if sol.Assigned(e, s, d) {
					report.Usage[d][s]++
					report.DayCounts[d][e]++
					report.WeeklyHours[e] += plan.Hours[d][s]
					report.WeeklyShifts[e]++
				}
			}
		}
	}
	report.HourCaps = plan.HourCaps

	c.checkViolations(report)
	c.checkDoubleBooking(report)
	c.checkDemand(report)
	c.checkShiftCaps(plan, report)
	c.checkHourCaps(report)

	return report
}

// checkViolations 检出选用了全零成本列的班表
func (c *Checker) checkViolations(report *Report) {
	for d := 0; d < model.NumDays; d++ {
		for s := 0; s < model.NumSchedules; s++ {
			if report.Availability[d][s] == 0 && report.Usage[d][s] != 0 {
				report.Violations = append(report.Violations, model.Violation{Day: d, Schedule: s})
			}
		}
	}
}

// checkDoubleBooking 复核同一员工同日至多一个班表
func (c *Checker) checkDoubleBooking(report *Report) {
	for d := 0; d < model.NumDays; d++ {
		for e := 0; e < model.NumEmployees; e++ {
			if report.DayCounts[d][e] > 1 {
				report.Issues = append(report.Issues, Issue{
					Type:     IssueDoubleBooking,
					Day:      d,
					Employee: e,
					Schedule: -1,
					Message:  fmt.Sprintf("员工E%d在%s被排入%d个班表", e+1, model.DayNames[d], report.DayCounts[d][e]),
				})
			}
		}
	}
}

// checkDemand 复核每个开放班表恰好排入一人
func (c *Checker) checkDemand(report *Report) {
	for d := 0; d < model.NumDays; d++ {
		for s := 0; s < model.NumSchedules; s++ {
			if report.Availability[d][s] == 1 && report.Usage[d][s] != 1 {
				report.Issues = append(report.Issues, Issue{
					Type:     IssueDemandShortfall,
					Day:      d,
					Employee: -1,
					Schedule: s,
					Message:  fmt.Sprintf("%s的班表S%d排入%d人，应为1人", model.DayNames[d], s, report.Usage[d][s]),
				})
			}
		}
	}
}

// checkShiftCaps 复核周班次数上限
func (c *Checker) checkShiftCaps(plan *model.Plan, report *Report) {
	for e := 0; e < model.NumEmployees; e++ {
		if report.WeeklyShifts[e] > plan.ShiftCaps[e] {
			report.Issues = append(report.Issues, Issue{
				Type:     IssueShiftCapExceeded,
				Day:      -1,
				Employee: e,
				Schedule: -1,
				Message:  fmt.Sprintf("员工E%d周班次数%d超过上限%d", e+1, report.WeeklyShifts[e], plan.ShiftCaps[e]),
			})
		}
	}
}

// checkHourCaps 复核周工时上限，上限为0表示不设限
func (c *Checker) checkHourCaps(report *Report) {
	for e := 0; e < model.NumEmployees; e++ {
		cap := report.HourCaps[e]
		if cap > 0 && report.WeeklyHours[e] > cap+c.config.HourEpsilon {
			report.Issues = append(report.Issues, Issue{
				Type:     IssueHourCapExceeded,
				Day:      -1,
				Employee: e,
				Schedule: -1,
				Message:  fmt.Sprintf("员工E%d周工时%.2f超过上限%.2f", e+1, report.WeeklyHours[e], cap),
			})
		}
	}
}
