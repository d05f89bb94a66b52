// Package cpsat 提供基于CP-SAT的求解器实现
package cpsat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
	sppb "github.com/google/or-tools/ortools/sat/proto/satparameters"
	"google.golang.org/protobuf/proto"

	"github.com/youpai/youpai/pkg/scheduler/solver"
)

// Solver CP-SAT求解器
type Solver struct{}

// New 创建CP-SAT求解器
func New() *Solver {
	return &Solver{}
}

// Name 返回求解器名称
func (s *Solver) Name() string {
	return "CpSatSolver"
}

// Solve 将通用模型翻译为CP-SAT模型并求解
func (s *Solver) Solve(ctx context.Context, m *solver.Model, opts solver.Options) (*solver.Outcome, error) {
	start := time.Now()

	b := cpmodel.NewCpModelBuilder()

	vars := make([]cpmodel.BoolVar, m.NumVars())
	for i := range vars {
		vars[i] = b.NewBoolVar().WithName(m.VarName(i))
	}

	for _, c := range m.Constraints {
		expr := cpmodel.NewLinearExpr()
		for _, t := range c.Terms {
			expr.AddTerm(vars[t.Var], t.Coeff)
		}
		b.AddLinearConstraint(expr, c.Lb, c.Ub)
	}

	obj := cpmodel.NewLinearExpr()
	for _, t := range m.Objective {
		obj.AddTerm(vars[t.Var], t.Coeff)
	}
	b.Minimize(obj)

	modelProto, err := b.Model()
	if err != nil {
		return nil, fmt.Errorf("构建CP-SAT模型失败: %w", err)
	}

	params := &sppb.SatParameters{
		MaxTimeInSeconds: proto.Float64(opts.TimeBudget.Seconds()),
		NumWorkers:       proto.Int32(int32(opts.Workers)),
	}

	// 上下文取消转换为CP-SAT的中断信号
	interrupt := make(chan struct{})
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			close(interrupt)
		case <-done:
		}
	}()

	res, err := cpmodel.SolveCpModelInterruptibleWithParameters(modelProto, params, interrupt)
	if err != nil {
		return nil, fmt.Errorf("CP-SAT求解失败: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outcome := &solver.Outcome{
		Status:   mapStatus(res.GetStatus()),
		Duration: time.Since(start),
	}
	if outcome.Status.Solved() {
		outcome.Objective = res.GetObjectiveValue()
		outcome.Values = make([]int64, len(vars))
		for i, v := range vars {
			if cpmodel.SolutionBooleanValue(res, v) {
				outcome.Values[i] = 1
			}
		}
	}

	return outcome, nil
}

// mapStatus 将CP-SAT状态映射为通用求解状态
func mapStatus(st cmpb.CpSolverStatus) solver.Status {
	switch st {
	case cmpb.CpSolverStatus_OPTIMAL:
		return solver.StatusOptimal
	case cmpb.CpSolverStatus_FEASIBLE:
		return solver.StatusFeasible
	case cmpb.CpSolverStatus_MODEL_INVALID:
		return solver.StatusInvalid
	default:
		// INFEASIBLE 与时限内未找到解的 UNKNOWN 对调用方等价
		return solver.StatusNoSolution
	}
}
