// Package stats 提供排班统计分析功能
package stats

import (
	"math"
	"sort"
)

// WorkloadMetrics 工时分布指标
type WorkloadMetrics struct {
	HoursGini     float64        `json:"hours_gini"`     // 工时基尼系数 (0=完全公平, 1=完全不公平)
	HoursVariance float64        `json:"hours_variance"` // 工时方差
	HoursStdDev   float64        `json:"hours_std_dev"`  // 工时标准差
	AvgHours      float64        `json:"avg_hours"`      // 人均工时
	MaxHours      float64        `json:"max_hours"`      // 最大工时
	MinHours      float64        `json:"min_hours"`      // 最小工时
	HoursRange    float64        `json:"hours_range"`    // 工时极差
	TotalHours    float64        `json:"total_hours"`    // 总工时
	TotalShifts   int            `json:"total_shifts"`   // 总班次数
	EmployeeStats []EmployeeStat `json:"employee_stats"` // 员工统计
}

// EmployeeStat 员工统计
type EmployeeStat struct {
	Employee   int     `json:"employee"`
	Hours      float64 `json:"hours"`
	ShiftCount int     `json:"shift_count"`
	Deviation  float64 `json:"deviation"` // 与平均值的偏差百分比
}

// WorkloadAnalyzer 工时分布分析器
type WorkloadAnalyzer struct{}

// NewWorkloadAnalyzer 创建工时分布分析器
func NewWorkloadAnalyzer() *WorkloadAnalyzer {
	return &WorkloadAnalyzer{}
}

// Analyze 分析每位员工的周工时与班次数分布
//
// hours 与 shifts 按员工下标对齐。
func (a *WorkloadAnalyzer) Analyze(hours []float64, shifts []int) *WorkloadMetrics {
	if len(hours) == 0 {
		return &WorkloadMetrics{EmployeeStats: []EmployeeStat{}}
	}

	avgHours := a.calculateMean(hours)
	variance := a.calculateVariance(hours, avgHours)
	stdDev := math.Sqrt(variance)
	maxHours, minHours := a.calculateRange(hours)

	totalHours := 0.0
	for _, h := range hours {
		totalHours += h
	}
	totalShifts := 0
	for _, c := range shifts {
		totalShifts += c
	}

	employeeStats := make([]EmployeeStat, len(hours))
	for e := range hours {
		stat := EmployeeStat{
			Employee: e,
			Hours:    hours[e],
		}
		if e < len(shifts) {
			stat.ShiftCount = shifts[e]
		}
		if avgHours > 0 {
			stat.Deviation = (hours[e] - avgHours) / avgHours * 100
		}
		employeeStats[e] = stat
	}

	// 按工时排序
	sort.Slice(employeeStats, func(i, j int) bool {
		return employeeStats[i].Hours > employeeStats[j].Hours
	})

	return &WorkloadMetrics{
		HoursGini:     a.calculateGini(hours),
		HoursVariance: variance,
		HoursStdDev:   stdDev,
		AvgHours:      avgHours,
		MaxHours:      maxHours,
		MinHours:      minHours,
		HoursRange:    maxHours - minHours,
		TotalHours:    totalHours,
		TotalShifts:   totalShifts,
		EmployeeStats: employeeStats,
	}
}

// calculateMean 计算平均值
func (a *WorkloadAnalyzer) calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// calculateVariance 计算方差
func (a *WorkloadAnalyzer) calculateVariance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

// calculateRange 计算极值
func (a *WorkloadAnalyzer) calculateRange(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

// calculateGini 计算基尼系数
func (a *WorkloadAnalyzer) calculateGini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	// 排序
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	// 计算累积和
	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	// 计算基尼系数
	gini := 0.0
	for i, v := range sorted {
		gini += (2*float64(i+1) - float64(n) - 1) * v
	}

	gini = gini / (float64(n) * sum)
	return math.Max(0, math.Min(1, gini))
}
