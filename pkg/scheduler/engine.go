package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/youpai/youpai/pkg/errors"
	"github.com/youpai/youpai/pkg/logger"
	"github.com/youpai/youpai/pkg/model"
	"github.com/youpai/youpai/pkg/scheduler/solver"
	"github.com/youpai/youpai/pkg/stats"
	"github.com/youpai/youpai/pkg/validator"
)

// Config 引擎配置
type Config struct {
	Scale      int64         `json:"scale"`
	TimeBudget time.Duration `json:"time_budget"`
	Workers    int           `json:"workers"`
}

// DefaultConfig 返回默认引擎配置
func DefaultConfig() Config {
	return Config{
		Scale:      DefaultScale,
		TimeBudget: 60 * time.Second,
		Workers:    8,
	}
}

// RunResult 一次优化运行的完整产物
type RunResult struct {
	RunID      uuid.UUID              `json:"run_id"`
	Solution   *model.Solution        `json:"solution"`
	Report     *validator.Report      `json:"report"`
	Workload   *stats.WorkloadMetrics `json:"workload"`
	Coverage   *stats.CoverageMetrics `json:"coverage"`
	SolverName string                 `json:"solver_name"`
	Duration   time.Duration          `json:"duration"`
}

// Engine 排班优化引擎
//
// 编排完整流水线：预检、建模、求解、解提取与目标值复核、体检、统计。
type Engine struct {
	builder   *Builder
	extractor *Extractor
	solver    solver.Solver
	opts      solver.Options
	checker   *validator.Checker
	workload  *stats.WorkloadAnalyzer
	coverage  *stats.CoverageAnalyzer
	logger    *logger.EngineLogger
}

// NewEngine 创建排班优化引擎
func NewEngine(s solver.Solver, cfg Config) *Engine {
	if cfg.Scale <= 0 {
		cfg.Scale = DefaultScale
	}
	opts := solver.DefaultOptions()
	if cfg.TimeBudget > 0 {
		opts.TimeBudget = cfg.TimeBudget
	}
	if cfg.Workers > 0 {
		opts.Workers = cfg.Workers
	}

	// 工时复核容差与系数缩放取整误差同源
	checkerCfg := &validator.CheckerConfig{
		HourEpsilon: 0.5 * float64(model.NumDays+1) / float64(cfg.Scale),
	}

	return &Engine{
		builder:   NewBuilder(cfg.Scale),
		extractor: NewExtractor(cfg.Scale),
		solver:    s,
		opts:      opts,
		checker:   validator.NewChecker(checkerCfg),
		workload:  stats.NewWorkloadAnalyzer(),
		coverage:  stats.NewCoverageAnalyzer(),
		logger:    logger.NewEngineLogger(),
	}
}

// Run 执行一次完整的排班优化
func (e *Engine) Run(ctx context.Context, runID uuid.UUID, plan *model.Plan) (*RunResult, error) {
	start := time.Now()
	e.logger.StartRun(runID.String(), model.NumEmployees, model.NumSchedules, model.NumDays)

	// 预检：超员日期直接拒绝，不进求解器
	if overloaded := e.builder.OverloadedDays(plan); len(overloaded) > 0 {
		err := errors.InfeasibleDemand(overloaded)
		e.logger.PrecheckFailed(runID.String(), overloaded)
		e.logger.RunFailed(runID.String(), err, time.Since(start))
		return nil, err
	}

	build := e.builder.Build(plan)

	outcome, err := e.solver.Solve(ctx, build.Model, e.opts)
	if err != nil {
		if ctx.Err() != nil {
			err = errors.Wrap(err, errors.CodeTimeout, "求解被取消或超时")
		} else {
			err = errors.Wrap(err, errors.CodeInternal, "求解器执行失败")
		}
		e.logger.RunFailed(runID.String(), err, time.Since(start))
		return nil, err
	}
	e.logger.SolveComplete(runID.String(), string(outcome.Status), outcome.Objective, outcome.Duration)

	if outcome.Status == solver.StatusInvalid {
		err := errors.New(errors.CodeModelInvalid, "构建的模型被求解器拒绝")
		e.logger.RunFailed(runID.String(), err, time.Since(start))
		return nil, err
	}
	if !outcome.Status.Solved() {
		err := errors.NoFeasibleSolution("未找到可行解，请检查班表可用性、周班次数上限与最大工时设置")
		e.logger.RunFailed(runID.String(), err, time.Since(start))
		return nil, err
	}

	sol, err := e.extractor.Extract(plan, build, outcome)
	if err != nil {
		e.logger.RunFailed(runID.String(), err, time.Since(start))
		return nil, err
	}

	report := e.checker.Check(plan, sol)
	if n := len(report.Violations); n > 0 {
		e.logger.SanityViolations(runID.String(), n)
	}

	workload := e.workload.Analyze(report.WeeklyHours[:], report.WeeklyShifts[:])
	coverage := e.coverage.Analyze(plan, sol)

	result := &RunResult{
		RunID:      runID,
		Solution:   sol,
		Report:     report,
		Workload:   workload,
		Coverage:   coverage,
		SolverName: e.solver.Name(),
		Duration:   time.Since(start),
	}
	e.logger.RunComplete(runID.String(), result.Duration, sol.Objective)

	return result, nil
}
