// Package scheduler 提供排班优化引擎
package scheduler

import (
	"fmt"
	"math"

	"github.com/youpai/youpai/pkg/errors"
	"github.com/youpai/youpai/pkg/model"
	"github.com/youpai/youpai/pkg/scheduler/solver"
)

// DefaultScale 浮点系数转整数的默认缩放因子
const DefaultScale int64 = 1000

// Builder 将排班计划编译为0-1线性模型
type Builder struct {
	scale int64
}

// NewBuilder 创建模型构建器，scale非正时使用默认缩放因子
func NewBuilder(scale int64) *Builder {
	if scale <= 0 {
		scale = DefaultScale
	}
	return &Builder{scale: scale}
}

// Scale 返回缩放因子
func (b *Builder) Scale() int64 {
	return b.scale
}

// OverloadedDays 返回开放班表数超过员工数的日期及其班表数
func (b *Builder) OverloadedDays(plan *model.Plan) map[string]int {
	var counts [model.NumDays]int
	for d := 0; d < model.NumDays; d++ {
		counts[d] = plan.AvailableSchedules(d)
	}
	return overloadedFromCounts(counts, model.NumEmployees)
}

// Precheck 校验每日开放班表数不超过员工数
//
// 每个开放班表要求恰好排入一人，超员时模型必然无解，
// 提前拒绝以省去整个求解时限的等待。
func (b *Builder) Precheck(plan *model.Plan) error {
	if overloaded := b.OverloadedDays(plan); len(overloaded) > 0 {
		return errors.InfeasibleDemand(overloaded)
	}
	return nil
}

// overloadedFromCounts 按容量筛出超限日期
func overloadedFromCounts(counts [model.NumDays]int, capacity int) map[string]int {
	overloaded := make(map[string]int)
	for d, c := range counts {
		if c > capacity {
			overloaded[model.DayNames[d]] = c
		}
	}
	return overloaded
}

// BuildResult 构建产物：模型与按(天,员工,班表)索引的变量编号
type BuildResult struct {
	Model *solver.Model
	Vars  [model.NumDays][model.NumEmployees][model.NumSchedules]int
}

// Build 编译计划为0-1模型
func (b *Builder) Build(plan *model.Plan) *BuildResult {
	m := solver.NewModel()
	res := &BuildResult{Model: m}

	// 决策变量：x=1表示员工e在d日承担班表s
	for d := 0; d < model.NumDays; d++ {
		for e := 0; e < model.NumEmployees; e++ {
			for s := 0; s < model.NumSchedules; s++ {
				res.Vars[d][e][s] = m.NewBoolVar(fmt.Sprintf("x_e%d_s%d_d%d", e, s, d))
			}
		}
	}

	// 每位员工每天至多一个班表
	for d := 0; d < model.NumDays; d++ {
		for e := 0; e < model.NumEmployees; e++ {
			terms := make([]solver.Term, 0, model.NumSchedules)
			for s := 0; s < model.NumSchedules; s++ {
				terms = append(terms, solver.Term{Var: res.Vars[d][e][s], Coeff: 1})
			}
			m.AddConstraint(terms, 0, 1)
		}
	}

	// 开放班表恰好排入一人，停开班表禁止排入
	for d := 0; d < model.NumDays; d++ {
		for s := 0; s < model.NumSchedules; s++ {
			if plan.ScheduleAvailable(d, s) {
				terms := make([]solver.Term, 0, model.NumEmployees)
				for e := 0; e < model.NumEmployees; e++ {
					terms = append(terms, solver.Term{Var: res.Vars[d][e][s], Coeff: 1})
				}
				m.AddConstraint(terms, 1, 1)
			} else {
				for e := 0; e < model.NumEmployees; e++ {
					m.AddConstraint([]solver.Term{{Var: res.Vars[d][e][s], Coeff: 1}}, 0, 0)
				}
			}
		}
	}

	// 周班次数上限
	for e := 0; e < model.NumEmployees; e++ {
		terms := make([]solver.Term, 0, model.NumDays*model.NumSchedules)
		for d := 0; d < model.NumDays; d++ {
			for s := 0; s < model.NumSchedules; s++ {
				terms = append(terms, solver.Term{Var: res.Vars[d][e][s], Coeff: 1})
			}
		}
		m.AddConstraint(terms, 0, int64(plan.ShiftCaps[e]))
	}

	// 周工时上限，上限为0表示不设限；小时数与上限用同一缩放因子取整
	for e := 0; e < model.NumEmployees; e++ {
		if plan.HourCaps[e] <= 0 {
			continue
		}
		terms := make([]solver.Term, 0, model.NumDays*model.NumSchedules)
		for d := 0; d < model.NumDays; d++ {
			for s := 0; s < model.NumSchedules; s++ {
				terms = append(terms, solver.Term{Var: res.Vars[d][e][s], Coeff: b.round(plan.Hours[d][s])})
			}
		}
		m.AddConstraint(terms, solver.NoLb, b.round(plan.HourCaps[e]))
	}

	// 最小化 Σ (成本 − λ·偏好)·x
	for d := 0; d < model.NumDays; d++ {
		for e := 0; e < model.NumEmployees; e++ {
			for s := 0; s < model.NumSchedules; s++ {
				m.AddObjectiveTerm(res.Vars[d][e][s], b.round(plan.Weight(e, s, d)))
			}
		}
	}

	return res
}

// round 将浮点值缩放后取整为模型系数
func (b *Builder) round(v float64) int64 {
	return int64(math.Round(v * float64(b.scale)))
}
