package model

import "fmt"

// AssignmentKey 标识一次指派：员工e在第d天承担班表s
type AssignmentKey struct {
	Employee int `json:"employee"`
	Schedule int `json:"schedule"`
	Day      int `json:"day"`
}

// Solution 一周排班的求解结果（稀疏存储，只记录被选中的指派）
type Solution struct {
	Assignments   map[AssignmentKey]struct{} `json:"-"`
	Objective     float64                    `json:"objective"` // 未缩放目标值，由原始成本独立重算
	ProvenOptimal bool                       `json:"proven_optimal"`
}

// NewSolution 创建空解
func NewSolution() *Solution {
	return &Solution{Assignments: make(map[AssignmentKey]struct{})}
}

// Assign 记录一次指派
func (s *Solution) Assign(e, sched, d int) {
	s.Assignments[AssignmentKey{Employee: e, Schedule: sched, Day: d}] = struct{}{}
}

// Assigned 判断员工e在第d天是否承担班表sched
func (s *Solution) Assigned(e, sched, d int) bool {
	_, ok := s.Assignments[AssignmentKey{Employee: e, Schedule: sched, Day: d}]
	return ok
}

// Count 返回指派总数
func (s *Solution) Count() int {
	return len(s.Assignments)
}

// WeeklyShifts 统计员工e全周承担的班次数
func (s *Solution) WeeklyShifts(e int) int {
	count := 0
	for key := range s.Assignments {
		if key.Employee == e {
			count++
		}
	}
	return count
}

// Violation 在停开班表上产生使用量的违规项
type Violation struct {
	Day      int `json:"day"`
	Schedule int `json:"schedule"`
}

// String 返回违规项的显示标签，如 "Mon : S3"
func (v Violation) String() string {
	return fmt.Sprintf("%s : S%d", DayNames[v.Day], v.Schedule)
}
