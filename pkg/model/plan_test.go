package model

import "testing"

func TestPlan_ScheduleAvailable(t *testing.T) {
	p := NewPlan()
	// 周一：班表0只有员工3有非零成本，班表1整列为零
	p.Costs[0][3][0] = 2.5

	tests := []struct {
		name     string
		day      int
		schedule int
		expected bool
	}{
		{"存在非零成本即开放", 0, 0, true},
		{"整列为零视为停开", 0, 1, false},
		{"其他天不受影响", 1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.ScheduleAvailable(tt.day, tt.schedule); got != tt.expected {
				t.Errorf("ScheduleAvailable(%d, %d) = %v, expected %v", tt.day, tt.schedule, got, tt.expected)
			}
		})
	}
}

func TestPlan_ScheduleAvailable_NegativeCost(t *testing.T) {
	p := NewPlan()
	p.Costs[2][0][5] = -1.0

	// 负成本同样算非零
	if !p.ScheduleAvailable(2, 5) {
		t.Error("负成本列应视为开放")
	}
}

func TestPlan_AvailableSchedules(t *testing.T) {
	p := NewPlan()
	p.Costs[0][0][0] = 1.0
	p.Costs[0][5][3] = 0.5
	p.Costs[0][19][19] = 8.0

	if got := p.AvailableSchedules(0); got != 3 {
		t.Errorf("AvailableSchedules(0) = %d, expected 3", got)
	}
	if got := p.AvailableSchedules(6); got != 0 {
		t.Errorf("AvailableSchedules(6) = %d, expected 0", got)
	}
}

func TestPlan_Weight(t *testing.T) {
	p := NewPlan()
	p.Lambda = 2.0
	p.Costs[1][4][7] = 5.0
	p.Prefs[1][4][7] = 1.5

	// cost - λ*pref = 5.0 - 2.0*1.5 = 2.0
	if got := p.Weight(4, 7, 1); got != 2.0 {
		t.Errorf("Weight(4, 7, 1) = %v, expected 2.0", got)
	}
}

func TestNewPlan_Defaults(t *testing.T) {
	p := NewPlan()

	if p.Lambda != DefaultLambda {
		t.Errorf("Lambda = %v, expected %v", p.Lambda, DefaultLambda)
	}
	for e := 0; e < NumEmployees; e++ {
		if p.ShiftCaps[e] != DefaultShiftCap {
			t.Errorf("ShiftCaps[%d] = %d, expected %d", e, p.ShiftCaps[e], DefaultShiftCap)
		}
		if p.HourCaps[e] != 0 {
			t.Errorf("HourCaps[%d] = %v, expected 0", e, p.HourCaps[e])
		}
	}
}

func TestPlan_MaxHour(t *testing.T) {
	p := NewPlan()
	p.Hours[0][0] = 4.0
	p.Hours[3][10] = 9.5
	p.Hours[6][19] = 8.0

	if got := p.MaxHour(); got != 9.5 {
		t.Errorf("MaxHour() = %v, expected 9.5", got)
	}
}
