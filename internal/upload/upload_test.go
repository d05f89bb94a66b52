package upload

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/youpai/youpai/pkg/errors"
)

// newTestFile 写入临时文件并返回路径
func newTestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "result.xlsx")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("写入测试文件失败: %v", err)
	}
	return path
}

func TestClient_Upload(t *testing.T) {
	var gotFilename, gotContent string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("请求方法 = %s, 期望 POST", r.Method)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("解析file字段失败: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotFilename = header.Filename
		data, _ := io.ReadAll(file)
		gotContent = string(data)

		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"status":"success","data":{"url":"https://files.example.com/123/result.xlsx"}}`)); err != nil {
			t.Errorf("写响应失败: %v", err)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	path := newTestFile(t, "workbook-bytes")

	url, err := client.Upload(context.Background(), path, "plan_Solved.xlsx")
	if err != nil {
		t.Fatalf("上传失败: %v", err)
	}

	if url != "https://files.example.com/123/result.xlsx" {
		t.Errorf("下载链接 = %q", url)
	}
	if gotFilename != "plan_Solved.xlsx" {
		t.Errorf("上传文件名 = %q, 期望 plan_Solved.xlsx", gotFilename)
	}
	if gotContent != "workbook-bytes" {
		t.Errorf("上传内容 = %q", gotContent)
	}
}

func TestClient_Upload_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "托管服务返回5xx",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "响应不是JSON",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>not json</html>"))
			},
		},
		{
			name: "响应缺少下载链接",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status":"success","data":{}}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := NewClient(srv.URL, 5*time.Second)
			path := newTestFile(t, "bytes")

			_, err := client.Upload(context.Background(), path, "x.xlsx")
			if !apperrors.Is(err, apperrors.CodeUploadFailed) {
				t.Errorf("错误码 = %v, 期望 %v", apperrors.GetCode(err), apperrors.CodeUploadFailed)
			}
		})
	}
}

func TestClient_Upload_MissingFile(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", time.Second)

	_, err := client.Upload(context.Background(), filepath.Join(t.TempDir(), "nope.xlsx"), "x.xlsx")
	if err == nil {
		t.Fatal("不存在的文件应返回错误")
	}
	if apperrors.Is(err, apperrors.CodeUploadFailed) {
		t.Error("本地文件错误不应记为上传失败")
	}
}
