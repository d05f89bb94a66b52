// Package model 定义优排引擎的核心数据模型
package model

// 固定规模：每周7天，20名员工对20个班表
const (
	// NumEmployees 员工数量
	NumEmployees = 20
	// NumSchedules 班表数量
	NumSchedules = 20
	// NumDays 排班天数（周一至周日）
	NumDays = 7
)

// DayNames 日表名称（与工作簿中的日表一一对应）
var DayNames = [NumDays]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// 空白单元格的默认值
const (
	// DefaultLambda λ留空时的偏好权重
	DefaultLambda = 1.0
	// DefaultShiftCap 周班次上限留空时的默认值
	DefaultShiftCap = 7
)

// Matrix 员工×班表矩阵（行为员工，列为班表）
type Matrix [NumEmployees][NumSchedules]float64

// Vector 班表向量（每个班表一个值）
type Vector [NumSchedules]float64

// Plan 一周排班的完整输入
//
// 可用性约定：某天某班表只要成本列中存在非零值即视为开放，
// 整列为零则视为当天停开。真实成本恰好全为零的班表因此无法
// 与停开区分，这一歧义由输入约定承担，引擎不做猜测。
type Plan struct {
	Costs     [NumDays]Matrix       `json:"costs"`
	Prefs     [NumDays]Matrix       `json:"prefs"`
	Hours     [NumDays]Vector       `json:"hours"`
	Lambda    float64               `json:"lambda"`
	ShiftCaps [NumEmployees]int     `json:"shift_caps"`
	HourCaps  [NumEmployees]float64 `json:"hour_caps"` // 0 表示不设工时上限
}

// NewPlan 创建带默认值的空计划
func NewPlan() *Plan {
	p := &Plan{Lambda: DefaultLambda}
	for e := 0; e < NumEmployees; e++ {
		p.ShiftCaps[e] = DefaultShiftCap
	}
	return p
}

// ScheduleAvailable 判断第d天班表s是否开放
func (p *Plan) ScheduleAvailable(d, s int) bool {
	for e := 0; e < NumEmployees; e++ {
		if p.Costs[d][e][s] != 0 {
			return true
		}
	}
	return false
}

// AvailableSchedules 统计第d天开放的班表数
func (p *Plan) AvailableSchedules(d int) int {
	count := 0
	for s := 0; s < NumSchedules; s++ {
		if p.ScheduleAvailable(d, s) {
			count++
		}
	}
	return count
}

// Weight 返回三元组(e,s,d)的目标系数（未缩放）：cost - λ*pref
func (p *Plan) Weight(e, s, d int) float64 {
	return p.Costs[d][e][s] - p.Lambda*p.Prefs[d][e][s]
}

// MaxHour 返回全周最大的单班表工时，用于校验容差计算
func (p *Plan) MaxHour() float64 {
	max := 0.0
	for d := 0; d < NumDays; d++ {
		for s := 0; s < NumSchedules; s++ {
			if p.Hours[d][s] > max {
				max = p.Hours[d][s]
			}
		}
	}
	return max
}
