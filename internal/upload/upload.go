// Package upload 将结果文件上传到临时文件托管服务
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/youpai/youpai/pkg/errors"
)

// Client 上传客户端
type Client struct {
	endpoint string
	client   *http.Client
}

// NewClient 创建上传客户端
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// response 托管服务响应体
type response struct {
	Status string `json:"status"`
	Data   struct {
		URL string `json:"url"`
	} `json:"data"`
}

// Upload 以multipart表单上传文件，返回托管服务给出的下载链接
func (c *Client) Upload(ctx context.Context, path, filename string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "打开待上传文件失败")
	}
	defer file.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "构建上传表单失败")
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "读取待上传文件失败")
	}
	if err := mw.Close(); err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "关闭上传表单失败")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "构建上传请求失败")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.UploadFailed("请求托管服务失败").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.UploadFailed(fmt.Sprintf("托管服务返回 %d", resp.StatusCode))
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", errors.UploadFailed("托管服务响应不是合法JSON").WithCause(err)
	}
	if parsed.Data.URL == "" {
		return "", errors.UploadFailed("托管服务响应缺少下载链接")
	}

	return parsed.Data.URL, nil
}
