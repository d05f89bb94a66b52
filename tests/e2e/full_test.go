// Package e2e 提供端到端测试
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"github.com/youpai/youpai/internal/handler"
	"github.com/youpai/youpai/internal/upload"
	"github.com/youpai/youpai/pkg/model"
	"github.com/youpai/youpai/pkg/scheduler"
	"github.com/youpai/youpai/pkg/scheduler/solver/cpsat"
)

// TestFullOptimizeWorkflow 测试完整优化工作流：上传工作簿 -> 求解 -> 回写 -> 托管
func TestFullOptimizeWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("跳过CP-SAT端到端测试（-short）")
	}

	// 准备输入工作簿：每天只开放班表S0，成本1.0，工时8
	planPath := filepath.Join(t.TempDir(), "weekplan.xlsx")
	buildPlanWorkbook(t, planPath)

	// 托管服务替身：记录上传的文件名与内容
	var uploadedName string
	var uploadedData []byte
	uploadSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()

		uploadedName = header.Filename
		uploadedData, _ = io.ReadAll(file)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","data":{"url":"https://tmpfiles.org/dl/4242/%s"}}`, header.Filename)
	}))
	defer uploadSrv.Close()

	mux := newTestMux(uploadSrv.URL, t.TempDir())

	// 上传并求解
	t.Log("发送优化请求...")
	body, contentType := multipartUpload(t, planPath, "file", "weekplan.xlsx")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, 响应: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Status      string  `json:"status"`
		RunID       string  `json:"run_id"`
		Objective   float64 `json:"objective"`
		Optimal     bool    `json:"optimal"`
		Assignments int     `json:"assignments"`
		Violations  int     `json:"violations"`
		DownloadURL string  `json:"download_url"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}

	t.Logf("目标值: %.3f 下载链接: %s", resp.Objective, resp.DownloadURL)

	if resp.Status != "success" {
		t.Errorf("status = %q, 期望 success", resp.Status)
	}
	if _, err := uuid.Parse(resp.RunID); err != nil {
		t.Errorf("run_id 不是合法UUID: %q", resp.RunID)
	}
	// 7天，每天一个开放班表，成本皆为1.0
	if math.Abs(resp.Objective-7.0) > 1e-6 {
		t.Errorf("objective = %.6f, 期望 7.0", resp.Objective)
	}
	if !resp.Optimal {
		t.Error("该规模问题应证明最优")
	}
	if resp.Assignments != 7 {
		t.Errorf("assignments = %d, 期望 7", resp.Assignments)
	}
	if resp.Violations != 0 {
		t.Errorf("violations = %d, 期望 0", resp.Violations)
	}
	if uploadedName != "weekplan_Solved.xlsx" {
		t.Errorf("上传文件名 = %q, 期望 weekplan_Solved.xlsx", uploadedName)
	}
	want := "https://tmpfiles.org/dl/4242/weekplan_Solved.xlsx"
	if resp.DownloadURL != want {
		t.Errorf("download_url = %q, 期望 %q", resp.DownloadURL, want)
	}

	// 托管的结果文件应包含决策、目标值与体检表
	verifySolvedWorkbook(t, uploadedData, resp.Objective)
}

// TestAPIErrorResponses 测试各端点的错误响应（不触发求解）
func TestAPIErrorResponses(t *testing.T) {
	mux := newTestMux("http://127.0.0.1:1", t.TempDir())

	garbagePath := filepath.Join(t.TempDir(), "garbage.xlsx")
	if err := os.WriteFile(garbagePath, []byte("不是一个xlsx文件"), 0o644); err != nil {
		t.Fatalf("写入测试文件失败: %v", err)
	}

	tests := []struct {
		name       string
		method     string
		path       string
		filePath   string // 为空则不带表单
		fileName   string
		wantStatus int
		wantCode   string
	}{
		{"优化接口拒绝GET", http.MethodGet, "/api/v1/optimize", "", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"缺少file字段", http.MethodPost, "/api/v1/optimize", "", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"扩展名不是xlsx", http.MethodPost, "/api/v1/optimize", garbagePath, "plan.txt", http.StatusBadRequest, "INVALID_INPUT"},
		{"内容不是工作簿", http.MethodPost, "/api/v1/optimize", garbagePath, "plan.xlsx", http.StatusBadRequest, "WORKBOOK_FORMAT"},
		{"运行历史未启用", http.MethodGet, "/api/v1/runs", "", "", http.StatusServiceUnavailable, "DATABASE_DISABLED"},
		{"运行详情未启用", http.MethodGet, "/api/v1/runs/not-a-uuid", "", "", http.StatusServiceUnavailable, "DATABASE_DISABLED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.filePath != "" {
				body, contentType := multipartUpload(t, tt.filePath, "file", tt.fileName)
				req = httptest.NewRequest(tt.method, tt.path, body)
				req.Header.Set("Content-Type", contentType)
			} else if tt.method == http.MethodPost {
				// 空表单体
				var buf bytes.Buffer
				mw := multipart.NewWriter(&buf)
				mw.Close()
				req = httptest.NewRequest(tt.method, tt.path, &buf)
				req.Header.Set("Content-Type", mw.FormDataContentType())
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("状态码 = %d, 期望 %d, 响应: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}

			var errResp struct {
				Status string `json:"status"`
				Code   string `json:"code"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
				t.Fatalf("解析错误响应失败: %v", err)
			}
			if errResp.Status != "error" {
				t.Errorf("status = %q, 期望 %q", errResp.Status, "error")
			}
			if errResp.Code != tt.wantCode {
				t.Errorf("code = %q, 期望 %q", errResp.Code, tt.wantCode)
			}
		})
	}
}

// 辅助函数

// newTestMux 构建与主程序一致路由的测试mux（运行历史存储未启用）
func newTestMux(uploadEndpoint, tempDir string) *http.ServeMux {
	eng := scheduler.NewEngine(cpsat.New(), scheduler.DefaultConfig())
	uploader := upload.NewClient(uploadEndpoint, 10*time.Second)

	optimizeHandler := handler.NewOptimizeHandler(eng, uploader, nil, tempDir)
	runsHandler := handler.NewRunsHandler(nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/optimize", optimizeHandler.Optimize)
	mux.HandleFunc("/api/v1/runs", runsHandler.List)
	mux.HandleFunc("/api/v1/runs/", runsHandler.Get)
	return mux
}

// buildPlanWorkbook 生成一份只开放班表S0的输入工作簿
func buildPlanWorkbook(t *testing.T, path string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for _, day := range model.DayNames {
		if _, err := f.NewSheet(day); err != nil {
			t.Fatalf("创建日表%s失败: %v", day, err)
		}
		for e := 0; e < model.NumEmployees; e++ {
			setCell(t, f, day, 3+e, 2, 1.0)
		}
		setCell(t, f, day, 24, 2, 8.0)
	}

	if _, err := f.NewSheet("Weekly"); err != nil {
		t.Fatalf("创建Weekly失败: %v", err)
	}
	setCell(t, f, "Weekly", 2, 5, 1.0) // λ

	if err := f.DeleteSheet("Sheet1"); err != nil {
		t.Fatalf("删除默认工作表失败: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("保存工作簿失败: %v", err)
	}
}

// multipartUpload 把文件打包为multipart表单体
func multipartUpload(t *testing.T, path, field, filename string) (*bytes.Buffer, string) {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取文件失败: %v", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("创建表单字段失败: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("写入表单失败: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("关闭表单失败: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

// verifySolvedWorkbook 校验托管的结果文件：决策矩阵、Weekly目标值与Sanity表
func verifySolvedWorkbook(t *testing.T, data []byte, objective float64) {
	t.Helper()

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("打开结果工作簿失败: %v", err)
	}
	defer f.Close()

	// 每天班表S0恰好一人中选
	for _, day := range model.DayNames {
		count := 0
		for e := 0; e < model.NumEmployees; e++ {
			if getCell(t, f, day, 26+e, 2) == "1" {
				count++
			}
		}
		if count != 1 {
			t.Errorf("%s 班表S0 中选人数 = %d, 期望 1", day, count)
		}
	}

	// Weekly 回写目标值
	if got := getCell(t, f, "Weekly", 3, 1); got != "Solved Objective" {
		t.Errorf("Weekly!A3 = %q", got)
	}
	if got := getCell(t, f, "Weekly", 3, 2); got != fmt.Sprintf("%g", objective) {
		t.Errorf("Weekly!B3 = %q, 期望 %g", got, objective)
	}

	// Sanity 表存在且无违规
	idx, err := f.GetSheetIndex("Sanity")
	if err != nil || idx == -1 {
		t.Fatal("结果工作簿缺少Sanity表")
	}
	if got := getCell(t, f, "Sanity", 58, 1); got != "None" {
		t.Errorf("Sanity!A58 = %q, 期望 None", got)
	}
}

func setCell(t *testing.T, f *excelize.File, sheet string, row, col int, v interface{}) {
	t.Helper()

	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		t.Fatalf("坐标转换失败: %v", err)
	}
	if err := f.SetCellValue(sheet, cell, v); err != nil {
		t.Fatalf("写入%s!%s失败: %v", sheet, cell, err)
	}
}

func getCell(t *testing.T, f *excelize.File, sheet string, row, col int) string {
	t.Helper()

	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		t.Fatalf("坐标转换失败: %v", err)
	}
	v, err := f.GetCellValue(sheet, cell)
	if err != nil {
		t.Fatalf("读取%s!%s失败: %v", sheet, cell, err)
	}
	return v
}
