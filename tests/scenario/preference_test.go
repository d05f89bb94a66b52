package scenario

import (
	"math"
	"testing"

	"github.com/youpai/youpai/pkg/model"
)

// TestPreferencePullsAssignment 偏好权重足够大时，高成本员工反而中选
func TestPreferencePullsAssignment(t *testing.T) {
	if testing.Short() {
		t.Skip("跳过CP-SAT场景测试（-short）")
	}

	plan := model.NewPlan()
	plan.Lambda = 2.0
	openScheduleAllDays(plan, 0, 1.0, 8)

	// 员工E2成本更高但偏好强烈：等效权重 2.0 - 2.0*2.0 = -2.0
	for d := 0; d < model.NumDays; d++ {
		plan.Costs[d][1][0] = 2.0
		plan.Prefs[d][1][0] = 2.0
	}

	res := runEngine(t, plan)

	t.Logf("目标值: %.3f E2周班次: %d", res.Solution.Objective, res.Solution.WeeklyShifts(1))

	if got := res.Solution.WeeklyShifts(1); got != 7 {
		t.Errorf("员工E2 周班次 = %d, 期望 7", got)
	}
	// 负权重带来负目标值：7 * -2.0
	if math.Abs(res.Solution.Objective-(-14.0)) > 1e-6 {
		t.Errorf("目标值 = %.6f, 期望 -14.0", res.Solution.Objective)
	}
	if !res.Solution.ProvenOptimal {
		t.Error("应证明最优")
	}
}

// TestWeakPreferenceLosesToCost 偏好权重不足时，低成本员工仍然中选
func TestWeakPreferenceLosesToCost(t *testing.T) {
	if testing.Short() {
		t.Skip("跳过CP-SAT场景测试（-short）")
	}

	plan := model.NewPlan()
	plan.Lambda = 0.4
	openScheduleAllDays(plan, 0, 1.0, 8)

	// 等效权重 2.0 - 0.4*2.0 = 1.2，仍高于其他员工的 1.0
	for d := 0; d < model.NumDays; d++ {
		plan.Costs[d][1][0] = 2.0
		plan.Prefs[d][1][0] = 2.0
	}

	res := runEngine(t, plan)

	if got := res.Solution.WeeklyShifts(1); got != 0 {
		t.Errorf("员工E2 周班次 = %d, 期望 0", got)
	}
	if math.Abs(res.Solution.Objective-7.0) > 1e-6 {
		t.Errorf("目标值 = %.6f, 期望 7.0", res.Solution.Objective)
	}
}
