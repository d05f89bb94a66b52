package stats

import (
	"math"
	"testing"
)

func TestWorkloadAnalyzer_Analyze(t *testing.T) {
	analyzer := NewWorkloadAnalyzer()

	hours := []float64{30, 10, 20}
	shifts := []int{5, 2, 4}

	metrics := analyzer.Analyze(hours, shifts)

	if metrics.AvgHours != 20 {
		t.Errorf("人均工时 = %v, 期望 20", metrics.AvgHours)
	}
	if metrics.MaxHours != 30 || metrics.MinHours != 10 {
		t.Errorf("极值 = (%v, %v), 期望 (30, 10)", metrics.MaxHours, metrics.MinHours)
	}
	if metrics.HoursRange != 20 {
		t.Errorf("极差 = %v, 期望 20", metrics.HoursRange)
	}
	if metrics.TotalHours != 60 {
		t.Errorf("总工时 = %v, 期望 60", metrics.TotalHours)
	}
	if metrics.TotalShifts != 11 {
		t.Errorf("总班次数 = %v, 期望 11", metrics.TotalShifts)
	}

	// 员工统计按工时降序
	if len(metrics.EmployeeStats) != 3 {
		t.Fatalf("员工统计数量 = %d, 期望 3", len(metrics.EmployeeStats))
	}
	if metrics.EmployeeStats[0].Employee != 0 || metrics.EmployeeStats[0].Hours != 30 {
		t.Errorf("工时最高员工 = E%d(%v小时), 期望 E0(30小时)", metrics.EmployeeStats[0].Employee, metrics.EmployeeStats[0].Hours)
	}
	if math.Abs(metrics.EmployeeStats[0].Deviation-50) > 1e-9 {
		t.Errorf("最高工时偏差 = %v%%, 期望 50%%", metrics.EmployeeStats[0].Deviation)
	}
	if metrics.EmployeeStats[2].Employee != 1 || metrics.EmployeeStats[2].ShiftCount != 2 {
		t.Errorf("工时最低员工 = E%d(班次%d), 期望 E1(班次2)", metrics.EmployeeStats[2].Employee, metrics.EmployeeStats[2].ShiftCount)
	}
}

func TestWorkloadAnalyzer_Gini(t *testing.T) {
	analyzer := NewWorkloadAnalyzer()

	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{
			name:   "完全均匀分布基尼系数为0",
			values: []float64{8, 8, 8, 8},
			want:   0,
		},
		{
			name:   "一人独占时基尼系数为(n-1)/n",
			values: []float64{0, 0, 0, 40},
			want:   0.75,
		},
		{
			name:   "全零工时视为完全公平",
			values: []float64{0, 0, 0},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analyzer.calculateGini(tt.values)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("calculateGini(%v) = %v, 期望 %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestWorkloadAnalyzer_Analyze_Empty(t *testing.T) {
	analyzer := NewWorkloadAnalyzer()

	metrics := analyzer.Analyze(nil, nil)
	if metrics == nil {
		t.Fatal("空输入应返回零值指标而非nil")
	}
	if metrics.HoursGini != 0 || metrics.TotalHours != 0 {
		t.Errorf("空输入指标应为零值, got gini=%v total=%v", metrics.HoursGini, metrics.TotalHours)
	}
}
