package scheduler

import (
	"math"

	"github.com/youpai/youpai/pkg/errors"
	"github.com/youpai/youpai/pkg/model"
	"github.com/youpai/youpai/pkg/scheduler/solver"
)

// Extractor 从求解结果还原排班解
type Extractor struct {
	scale int64
}

// NewExtractor 创建解提取器，scale非正时使用默认缩放因子
func NewExtractor(scale int64) *Extractor {
	if scale <= 0 {
		scale = DefaultScale
	}
	return &Extractor{scale: scale}
}

// Extract 还原排班解并用原始浮点系数独立重算目标值
//
// 求解器优化的是缩放取整后的系数，重算值与其还原值的偏差
// 不应超过每个选中项半个取整单位，超出即视为提取或建模错误。
func (x *Extractor) Extract(plan *model.Plan, build *BuildResult, outcome *solver.Outcome) (*model.Solution, error) {
	sol := model.NewSolution()
	sol.ProvenOptimal = outcome.Status == solver.StatusOptimal

	objective := 0.0
	for d := 0; d < model.NumDays; d++ {
		for e := 0; e < model.NumEmployees; e++ {
			for s := 0; s < model.NumSchedules; s++ {
				if outcome.Value(build.Vars[d][e][s]) == 1 {
					sol.Assign(e, s, d)
					objective += plan.Weight(e, s, d)
				}
			}
		}
	}
	sol.Objective = objective

	reported := outcome.Objective / float64(x.scale)
	tolerance := 0.5*float64(sol.Count())/float64(x.scale) + 1e-9
	if math.Abs(objective-reported) > tolerance {
		return nil, errors.ObjectiveMismatch(objective, reported, tolerance)
	}

	return sol, nil
}
