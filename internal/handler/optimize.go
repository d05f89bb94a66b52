// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/youpai/youpai/internal/metrics"
	"github.com/youpai/youpai/internal/repository"
	"github.com/youpai/youpai/internal/workbook"
	"github.com/youpai/youpai/pkg/errors"
	"github.com/youpai/youpai/pkg/logger"
	"github.com/youpai/youpai/pkg/model"
	"github.com/youpai/youpai/pkg/scheduler"
)

// maxUploadSize 上传文件大小上限（32MB）
const maxUploadSize = 32 << 20

// Optimizer 排班优化能力
type Optimizer interface {
	Run(ctx context.Context, runID uuid.UUID, plan *model.Plan) (*scheduler.RunResult, error)
}

// Uploader 结果文件托管能力
type Uploader interface {
	Upload(ctx context.Context, path, filename string) (string, error)
}

// OptimizeHandler 优化处理器
type OptimizeHandler struct {
	engine   Optimizer
	reader   *workbook.Reader
	writer   *workbook.Writer
	uploader Uploader
	store    repository.RunRepositoryInterface // 可为nil（运行历史未启用）
	tempDir  string
}

// NewOptimizeHandler 创建优化处理器
func NewOptimizeHandler(engine Optimizer, uploader Uploader, store repository.RunRepositoryInterface, tempDir string) *OptimizeHandler {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &OptimizeHandler{
		engine:   engine,
		reader:   workbook.NewReader(),
		writer:   workbook.NewWriter(),
		uploader: uploader,
		store:    store,
		tempDir:  tempDir,
	}
}

// OptimizeResponse 优化响应
type OptimizeResponse struct {
	Status      string  `json:"status"`       // success
	RunID       string  `json:"run_id"`       // 运行ID
	Objective   float64 `json:"objective"`    // 未缩放的目标值
	Optimal     bool    `json:"optimal"`      // 是否证明最优
	Assignments int     `json:"assignments"`  // 排班数
	Violations  int     `json:"violations"`   // 体检违规数
	DownloadURL string  `json:"download_url"` // 结果文件下载链接
}

// Optimize 处理排班优化请求：接收工作簿，求解后写回并上传结果文件
func (h *OptimizeHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	metrics.IncActiveRuns()
	defer metrics.DecActiveRuns()

	runID := uuid.New()
	start := time.Now()

	// 解析multipart表单
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析multipart表单失败"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "缺少上传文件字段 file"))
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		respondError(w, errors.InvalidInput("file", "仅支持.xlsx文件"))
		return
	}

	// 保存上传文件到临时目录
	inPath := filepath.Join(h.tempDir, runID.String()+".xlsx")
	if err := saveUpload(file, inPath); err != nil {
		h.fail(w, runID, start, errors.Wrap(err, errors.CodeInternal, "保存上传文件失败"))
		return
	}
	defer os.Remove(inPath)

	// 读取排班计划
	plan, err := h.reader.ReadPlan(inPath)
	if err != nil {
		h.fail(w, runID, start, err)
		return
	}

	// 求解
	result, err := h.engine.Run(r.Context(), runID, plan)
	if err != nil {
		h.fail(w, runID, start, err)
		return
	}

	solveStatus := "feasible"
	if result.Solution.ProvenOptimal {
		solveStatus = "optimal"
	}
	metrics.RecordSolve(solveStatus, result.Duration)
	metrics.SetSolutionObjective(result.Solution.Objective)
	metrics.AddSanityViolations(len(result.Report.Violations))
	metrics.SetWorkloadGini(result.Workload.HoursGini)

	// 写出结果工作簿
	outPath := filepath.Join(h.tempDir, runID.String()+"_Solved.xlsx")
	defer os.Remove(outPath)
	if err := h.writer.WriteSolution(inPath, outPath, result.Solution, result.Report); err != nil {
		h.fail(w, runID, start, err)
		return
	}

	// 上传结果文件，下载名沿用原始文件名加 _Solved 后缀
	url, err := h.uploader.Upload(r.Context(), outPath, solvedName(header.Filename))
	if err != nil {
		metrics.RecordUpload(false)
		h.fail(w, runID, start, err)
		return
	}
	metrics.RecordUpload(true)

	metrics.RecordRun(true)
	h.recordRun(&repository.Run{
		ID:          runID,
		Status:      repository.RunStatusSuccess,
		Objective:   result.Solution.Objective,
		Optimal:     result.Solution.ProvenOptimal,
		Assignments: result.Solution.Count(),
		Violations:  len(result.Report.Violations),
		DurationMs:  time.Since(start).Milliseconds(),
		DownloadURL: url,
	})

	respondJSON(w, http.StatusOK, OptimizeResponse{
		Status:      "success",
		RunID:       runID.String(),
		Objective:   result.Solution.Objective,
		Optimal:     result.Solution.ProvenOptimal,
		Assignments: result.Solution.Count(),
		Violations:  len(result.Report.Violations),
		DownloadURL: url,
	})
}

// fail 记录失败运行并返回错误响应
func (h *OptimizeHandler) fail(w http.ResponseWriter, runID uuid.UUID, start time.Time, err error) {
	appErr := errors.From(err)

	metrics.RecordRun(false)
	h.recordRun(&repository.Run{
		ID:           runID,
		Status:       repository.RunStatusFailed,
		DurationMs:   time.Since(start).Milliseconds(),
		ErrorCode:    string(appErr.Code),
		ErrorMessage: appErr.Message,
	})

	respondError(w, appErr)
}

// recordRun 尽力写入运行记录，失败只记日志
func (h *OptimizeHandler) recordRun(run *repository.Run) {
	if h.store == nil {
		return
	}

	// 请求上下文可能已被取消，审计写入使用独立的短超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.store.Create(ctx, run); err != nil {
		logger.Warn().Err(err).Str("run_id", run.ID.String()).Msg("写入运行记录失败")
	}
}

// saveUpload 把上传内容写入目标路径
func saveUpload(src io.Reader, dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}

// solvedName 由上传文件名推导结果文件名，如 plan.xlsx -> plan_Solved.xlsx
func solvedName(filename string) string {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + "_Solved.xlsx"
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应
func respondError(w http.ResponseWriter, err *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)

	body := map[string]interface{}{
		"status":  "error",
		"code":    err.Code,
		"message": err.Message,
		"details": err.Details,
	}
	if len(err.Fields) > 0 {
		body["fields"] = err.Fields
	}
	json.NewEncoder(w).Encode(body)
}
