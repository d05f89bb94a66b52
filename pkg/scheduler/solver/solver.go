// Package solver 提供0-1线性模型与求解器抽象
package solver

import (
	"context"
	"fmt"
	"math"
	"time"
)

// 单侧约束使用的无界哨兵值
const (
	NoLb int64 = math.MinInt64
	NoUb int64 = math.MaxInt64
)

// Term 线性项：系数乘以0-1变量
type Term struct {
	Var   int   `json:"var"`
	Coeff int64 `json:"coeff"`
}

// LinearConstraint 线性约束：Lb <= Σ Coeff*Var <= Ub
type LinearConstraint struct {
	Terms []Term `json:"terms"`
	Lb    int64  `json:"lb"`
	Ub    int64  `json:"ub"`
}

// Model 0-1整数线性模型
//
// 变量按创建顺序编号，目标与约束只通过变量编号引用变量，
// 与具体求解器实现解耦。
type Model struct {
	Names       []string           `json:"names"`
	Objective   []Term             `json:"objective"`
	Constraints []LinearConstraint `json:"constraints"`
}

// NewModel 创建空模型
func NewModel() *Model {
	return &Model{
		Names:       make([]string, 0),
		Objective:   make([]Term, 0),
		Constraints: make([]LinearConstraint, 0),
	}
}

// NewBoolVar 创建0-1变量，返回变量编号
func (m *Model) NewBoolVar(name string) int {
	m.Names = append(m.Names, name)
	return len(m.Names) - 1
}

// NumVars 返回变量数量
func (m *Model) NumVars() int {
	return len(m.Names)
}

// VarName 返回变量名称
func (m *Model) VarName(v int) string {
	if v < 0 || v >= len(m.Names) {
		return fmt.Sprintf("x%d", v)
	}
	return m.Names[v]
}

// AddConstraint 添加线性约束
func (m *Model) AddConstraint(terms []Term, lb, ub int64) {
	m.Constraints = append(m.Constraints, LinearConstraint{Terms: terms, Lb: lb, Ub: ub})
}

// AddObjectiveTerm 向最小化目标添加一项
func (m *Model) AddObjectiveTerm(v int, coeff int64) {
	m.Objective = append(m.Objective, Term{Var: v, Coeff: coeff})
}

// Status 求解状态
type Status string

const (
	// StatusOptimal 找到最优解
	StatusOptimal Status = "optimal"
	// StatusFeasible 时限内找到可行解但未证明最优
	StatusFeasible Status = "feasible"
	// StatusNoSolution 无可行解或时限内未找到解
	StatusNoSolution Status = "no_solution"
	// StatusInvalid 模型非法
	StatusInvalid Status = "invalid"
)

// Solved 返回状态是否携带可用解
func (s Status) Solved() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Options 求解选项
type Options struct {
	TimeBudget time.Duration `json:"time_budget"`
	Workers    int           `json:"workers"`
}

// DefaultOptions 返回默认求解选项
func DefaultOptions() Options {
	return Options{
		TimeBudget: 60 * time.Second,
		Workers:    8,
	}
}

// Outcome 求解结果
type Outcome struct {
	Status    Status        `json:"status"`
	Objective float64       `json:"objective"` // 缩放后的目标值
	Values    []int64       `json:"values"`    // 按变量编号排列的取值
	Duration  time.Duration `json:"duration"`
}

// Value 返回变量取值，解不含该变量时返回0
func (o *Outcome) Value(v int) int64 {
	if o == nil || v < 0 || v >= len(o.Values) {
		return 0
	}
	return o.Values[v]
}

// Solver 求解器接口
type Solver interface {
	// Solve 求解模型
	Solve(ctx context.Context, m *Model, opts Options) (*Outcome, error)

	// Name 返回求解器名称
	Name() string
}
