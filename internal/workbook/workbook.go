// Package workbook 读写排班工作簿
//
// 工作簿布局（行列均从1起算）：
//
//	各天工作表 Mon..Sun
//	  成本区   B3:U22   (员工×班表)
//	  偏好区   W3:AP22  (员工×班表)
//	  工时行   B24:U24  (每班表小时数)
//	  决策区   B26:U45  (求解后写回0/1)
//	Weekly 工作表
//	  E2       偏好权重λ
//	  C6:C25   周班次数上限
//	  F6:F25   周工时上限 (0或空白表示不设限)
//	  B3       求解目标值 (输出)
//	  E6:E25   实际周工时 (输出)
//	Sanity 工作表整体由本包重建。
package workbook

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/youpai/youpai/pkg/errors"
	"github.com/youpai/youpai/pkg/model"
	"github.com/youpai/youpai/pkg/validator"
)

const (
	weeklySheet = "Weekly"
	sanitySheet = "Sanity"

	costStartRow = 3
	costStartCol = 2
	prefStartCol = 23
	hoursRow     = 24
	decisionsRow = 26

	lambdaRow     = 2
	lambdaCol     = 5
	capsStartRow  = 6
	shiftCapCol   = 3
	hourCapCol    = 6
	actualHourCol = 5
)

// Sanity工作表行布局
const (
	sanityUsageHeaderRow = 1
	sanityScheduleRow    = 2
	sanityUsageBaseRow   = 3
	sanityAvailHeaderRow = 10
	sanityEmpHeaderRow   = 20
	sanityHoursHeaderRow = 32
	sanityViolHeaderRow  = sanityHoursHeaderRow + 25
)

// Reader 从xlsx读取排班计划
type Reader struct{}

// NewReader 创建工作簿读取器
func NewReader() *Reader {
	return &Reader{}
}

// ReadPlan 读取工作簿中的排班计划
func (r *Reader) ReadPlan(path string) (*model.Plan, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeWorkbookFormat, "无法打开工作簿")
	}
	defer f.Close()

	return r.readPlan(f)
}

func (r *Reader) readPlan(f *excelize.File) (*model.Plan, error) {
	required := make([]string, 0, model.NumDays+1)
	required = append(required, model.DayNames[:]...)
	required = append(required, weeklySheet)
	for _, sheet := range required {
		idx, err := f.GetSheetIndex(sheet)
		if err != nil || idx == -1 {
			return nil, errors.WorkbookFormat(sheet, "工作表不存在")
		}
	}

	plan := model.NewPlan()

	for d, day := range model.DayNames {
		// 成本区与偏好区
		for i := 0; i < model.NumEmployees; i++ {
			for j := 0; j < model.NumSchedules; j++ {
				cost, err := r.readFloat(f, day, costStartRow+i, costStartCol+j, 0)
				if err != nil {
					return nil, err
				}
				plan.Costs[d][i][j] = cost

				pref, err := r.readFloat(f, day, costStartRow+i, prefStartCol+j, 0)
				if err != nil {
					return nil, err
				}
				plan.Prefs[d][i][j] = pref
			}
		}

		// 每班表小时数
		for s := 0; s < model.NumSchedules; s++ {
			h, err := r.readFloat(f, day, hoursRow, costStartCol+s, 0)
			if err != nil {
				return nil, err
			}
			plan.Hours[d][s] = h
		}
	}

	// 偏好权重λ：空白与0都按默认权重处理
	lam, err := r.readFloat(f, weeklySheet, lambdaRow, lambdaCol, model.DefaultLambda)
	if err != nil {
		return nil, err
	}
	if lam == 0 {
		lam = model.DefaultLambda
	}
	plan.Lambda = lam

	// 周班次数上限：空白按默认值，小数截断取整
	for e := 0; e < model.NumEmployees; e++ {
		v, err := r.readFloat(f, weeklySheet, capsStartRow+e, shiftCapCol, model.DefaultShiftCap)
		if err != nil {
			return nil, err
		}
		plan.ShiftCaps[e] = int(v)
	}

	// 周工时上限：空白与0都表示不设限
	for e := 0; e < model.NumEmployees; e++ {
		v, err := r.readFloat(f, weeklySheet, capsStartRow+e, hourCapCol, 0)
		if err != nil {
			return nil, err
		}
		plan.HourCaps[e] = v
	}

	return plan, nil
}

// readFloat 读取数值单元格，空白返回默认值，非数值内容报格式错误
func (r *Reader) readFloat(f *excelize.File, sheet string, row, col int, def float64) (float64, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeInternal, "非法单元格坐标")
	}
	raw, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeWorkbookFormat, fmt.Sprintf("读取 %s!%s 失败", sheet, cell))
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.WorkbookFormat(fmt.Sprintf("%s!%s", sheet, cell), fmt.Sprintf("期望数值，实际为 %q", raw))
	}
	return v, nil
}

// Writer 将排班解写回工作簿
type Writer struct{}

// NewWriter 创建工作簿写入器
func NewWriter() *Writer {
	return &Writer{}
}

// WriteSolution 在输入工作簿基础上写入解与体检表，另存到输出路径
func (w *Writer) WriteSolution(inPath, outPath string, sol *model.Solution, report *validator.Report) error {
	f, err := excelize.OpenFile(inPath)
	if err != nil {
		return errors.Wrap(err, errors.CodeWorkbookFormat, "无法打开工作簿")
	}
	defer f.Close()

	if err := w.writeDecisions(f, sol); err != nil {
		return err
	}
	if err := w.writeWeekly(f, sol, report); err != nil {
		return err
	}
	if err := w.writeSanity(f, report); err != nil {
		return err
	}

	if err := f.SaveAs(outPath); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "保存工作簿失败")
	}
	return nil
}

// writeDecisions 将0/1决策矩阵写回各天工作表
func (w *Writer) writeDecisions(f *excelize.File, sol *model.Solution) error {
	for d, day := range model.DayNames {
		for e := 0; e < model.NumEmployees; e++ {
			for s := 0; s < model.NumSchedules; s++ {
				val := 0
				if sol.Assigned(e, s, d) {
					val = 1
				}
				if err := w.set(f, day, decisionsRow+e, costStartCol+s, val); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// writeWeekly 写入目标值与每位员工的实际周工时
func (w *Writer) writeWeekly(f *excelize.File, sol *model.Solution, report *validator.Report) error {
	if err := f.SetCellValue(weeklySheet, "A3", "Solved Objective"); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "写入目标值标签失败")
	}
	if err := f.SetCellValue(weeklySheet, "B3", sol.Objective); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "写入目标值失败")
	}
	if err := f.SetCellValue(weeklySheet, "D5", "Max Hours (cap)"); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "写入表头失败")
	}
	if err := f.SetCellValue(weeklySheet, "E5", "Actual Hours (solved)"); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "写入表头失败")
	}
	for e := 0; e < model.NumEmployees; e++ {
		if err := w.set(f, weeklySheet, capsStartRow+e, actualHourCol, report.WeeklyHours[e]); err != nil {
			return err
		}
	}
	return nil
}

// writeSanity 重建Sanity工作表
func (w *Writer) writeSanity(f *excelize.File, report *validator.Report) error {
	if idx, err := f.GetSheetIndex(sanitySheet); err == nil && idx != -1 {
		if err := f.DeleteSheet(sanitySheet); err != nil {
			return errors.Wrap(err, errors.CodeInternal, "删除旧体检表失败")
		}
	}
	if _, err := f.NewSheet(sanitySheet); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "创建体检表失败")
	}

	// 班表使用统计
	if err := w.set(f, sanitySheet, sanityUsageHeaderRow, 1,
		"Schedule usage per day (sum over employees for each schedule)"); err != nil {
		return err
	}
	for s := 0; s < model.NumSchedules; s++ {
		if err := w.set(f, sanitySheet, sanityScheduleRow, 2+s, fmt.Sprintf("S%d", s)); err != nil {
			return err
		}
	}

	if err := w.set(f, sanitySheet, sanityAvailHeaderRow, 1,
		"Availability per day (1=available, 0=unavailable; availability = any non-zero COST in column)"); err != nil {
		return err
	}

	if err := w.set(f, sanitySheet, sanityEmpHeaderRow, 1,
		"Employee assignment count per day (<=1 expected)"); err != nil {
		return err
	}
	for e := 0; e < model.NumEmployees; e++ {
		if err := w.set(f, sanitySheet, sanityEmpHeaderRow+1, 2+e, fmt.Sprintf("E%d", e+1)); err != nil {
			return err
		}
	}

	for d := 0; d < model.NumDays; d++ {
		day := model.DayNames[d]
		if err := w.set(f, sanitySheet, sanityUsageBaseRow+d, 1, day); err != nil {
			return err
		}
		if err := w.set(f, sanitySheet, sanityAvailHeaderRow+1+d, 1, day); err != nil {
			return err
		}
		for s := 0; s < model.NumSchedules; s++ {
			if err := w.set(f, sanitySheet, sanityUsageBaseRow+d, 2+s, report.Usage[d][s]); err != nil {
				return err
			}
			if err := w.set(f, sanitySheet, sanityAvailHeaderRow+1+d, 2+s, report.Availability[d][s]); err != nil {
				return err
			}
		}
		for e := 0; e < model.NumEmployees; e++ {
			if err := w.set(f, sanitySheet, sanityEmpHeaderRow+2+d, 2+e, report.DayCounts[d][e]); err != nil {
				return err
			}
		}
	}

	// 周工时：上限与实际
	if err := w.set(f, sanitySheet, sanityHoursHeaderRow, 1, "Weekly hours per employee (cap vs actual)"); err != nil {
		return err
	}
	if err := w.set(f, sanitySheet, sanityHoursHeaderRow, 2, "Cap"); err != nil {
		return err
	}
	if err := w.set(f, sanitySheet, sanityHoursHeaderRow, 3, "Actual"); err != nil {
		return err
	}
	for e := 0; e < model.NumEmployees; e++ {
		row := sanityHoursHeaderRow + 1 + e
		if err := w.set(f, sanitySheet, row, 1, fmt.Sprintf("E%d", e+1)); err != nil {
			return err
		}
		if err := w.set(f, sanitySheet, row, 2, report.HourCaps[e]); err != nil {
			return err
		}
		if err := w.set(f, sanitySheet, row, 3, report.WeeklyHours[e]); err != nil {
			return err
		}
	}

	// 违规清单
	if err := w.set(f, sanitySheet, sanityViolHeaderRow, 1,
		"Violations (picked schedule with all-zero COST column)"); err != nil {
		return err
	}
	if len(report.Violations) == 0 {
		return w.set(f, sanitySheet, sanityViolHeaderRow+1, 1, "None")
	}
	for i, v := range report.Violations {
		if err := w.set(f, sanitySheet, sanityViolHeaderRow+1+i, 1, v.String()); err != nil {
			return err
		}
	}
	return nil
}

// set 按坐标写入单元格
func (w *Writer) set(f *excelize.File, sheet string, row, col int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "非法单元格坐标")
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return errors.Wrap(err, errors.CodeInternal, fmt.Sprintf("写入 %s!%s 失败", sheet, cell))
	}
	return nil
}
