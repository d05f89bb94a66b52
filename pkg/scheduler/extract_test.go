package scheduler

import (
	"math"
	"testing"

	apperrors "github.com/youpai/youpai/pkg/errors"
	"github.com/youpai/youpai/pkg/model"
	"github.com/youpai/youpai/pkg/scheduler/solver"
)

// assignInOutcome 在求解结果中标记一条指派
func assignInOutcome(outcome *solver.Outcome, build *BuildResult, e, s, d int) {
	outcome.Values[build.Vars[d][e][s]] = 1
}

func TestExtractor_Extract(t *testing.T) {
	plan := newTestPlan()
	build := NewBuilder(1000).Build(plan)

	// 每天E0上S0(权重1.0)、E1上S1(权重2.0)，缩放后目标 7*(1000+2000)
	outcome := &solver.Outcome{
		Status:    solver.StatusOptimal,
		Objective: 21000,
		Values:    make([]int64, build.Model.NumVars()),
	}
	for d := 0; d < model.NumDays; d++ {
		assignInOutcome(outcome, build, 0, 0, d)
		assignInOutcome(outcome, build, 1, 1, d)
	}

	sol, err := NewExtractor(1000).Extract(plan, build, outcome)
	if err != nil {
		t.Fatalf("提取失败: %v", err)
	}

	if sol.Count() != 14 {
		t.Errorf("指派数量 = %d, 期望 14", sol.Count())
	}
	if !sol.Assigned(0, 0, 3) || !sol.Assigned(1, 1, 6) {
		t.Error("指派缺失")
	}
	if sol.Assigned(2, 0, 0) {
		t.Error("出现多余指派")
	}
	if math.Abs(sol.Objective-21.0) > 1e-9 {
		t.Errorf("重算目标值 = %v, 期望 21.0", sol.Objective)
	}
	if !sol.ProvenOptimal {
		t.Error("最优状态应标记ProvenOptimal")
	}
}

func TestExtractor_Extract_FeasibleNotProven(t *testing.T) {
	plan := newTestPlan()
	build := NewBuilder(1000).Build(plan)

	outcome := &solver.Outcome{
		Status:    solver.StatusFeasible,
		Objective: 1000,
		Values:    make([]int64, build.Model.NumVars()),
	}
	assignInOutcome(outcome, build, 0, 0, 0)

	sol, err := NewExtractor(1000).Extract(plan, build, outcome)
	if err != nil {
		t.Fatalf("提取失败: %v", err)
	}
	if sol.ProvenOptimal {
		t.Error("可行但未证明最优的解不应标记ProvenOptimal")
	}
}

func TestExtractor_Extract_ObjectiveMismatch(t *testing.T) {
	plan := newTestPlan()
	build := NewBuilder(1000).Build(plan)

	// 求解器报告的目标值与指派严重不符
	outcome := &solver.Outcome{
		Status:    solver.StatusOptimal,
		Objective: 99999,
		Values:    make([]int64, build.Model.NumVars()),
	}
	assignInOutcome(outcome, build, 0, 0, 0)

	_, err := NewExtractor(1000).Extract(plan, build, outcome)
	if err == nil {
		t.Fatal("目标值严重偏差时应返回错误")
	}
	if !apperrors.Is(err, apperrors.CodeObjectiveMismatch) {
		t.Errorf("错误码 = %v, 期望 %v", apperrors.GetCode(err), apperrors.CodeObjectiveMismatch)
	}
}

func TestExtractor_Extract_ToleratesRounding(t *testing.T) {
	plan := newTestPlan()
	plan.Costs[0][0][0] = 1.0004 // 缩放取整后系数1000，单项误差0.4个取整单位
	build := NewBuilder(1000).Build(plan)

	outcome := &solver.Outcome{
		Status:    solver.StatusOptimal,
		Objective: 1000,
		Values:    make([]int64, build.Model.NumVars()),
	}
	assignInOutcome(outcome, build, 0, 0, 0)

	if _, err := NewExtractor(1000).Extract(plan, build, outcome); err != nil {
		t.Errorf("取整误差范围内的偏差不应报错: %v", err)
	}
}
