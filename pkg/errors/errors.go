// Package errors 提供统一的错误处理框架
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code 错误码
type Code string

const (
	// 通用错误码
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeNotFound     Code = "NOT_FOUND"
	CodeTimeout      Code = "TIMEOUT"
	CodeRateLimited  Code = "RATE_LIMITED"

	// 优化引擎相关
	CodeInfeasibleDemand   Code = "INFEASIBLE_DEMAND"    // 预检发现开放班表数超过员工数
	CodeNoFeasibleSolution Code = "NO_FEASIBLE_SOLUTION" // 求解器在时限内未找到可行解
	CodeObjectiveMismatch  Code = "OBJECTIVE_MISMATCH"   // 重算目标值与求解器返回值偏差超限
	CodeModelInvalid       Code = "MODEL_INVALID"        // 构建的模型被求解器拒绝

	// 数据相关
	CodeWorkbookFormat   Code = "WORKBOOK_FORMAT"
	CodeUploadFailed     Code = "UPLOAD_FAILED"
	CodeDatabaseError    Code = "DATABASE_ERROR"
	CodeDatabaseDisabled Code = "DATABASE_DISABLED"
)

// AppError 应用错误
type AppError struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Cause      error                  `json:"-"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause 添加原因
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithField 添加字段
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// New 创建新错误
func New(code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// codeToHTTPStatus 错误码转HTTP状态码
func codeToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeWorkbookFormat:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeInfeasibleDemand, CodeNoFeasibleSolution:
		return http.StatusUnprocessableEntity
	case CodeUploadFailed:
		return http.StatusBadGateway
	case CodeDatabaseDisabled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Is 检查错误是否为特定类型
func Is(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode 获取错误码
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetHTTPStatus 获取HTTP状态码
func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// From 把任意错误转换为AppError，非AppError一律按内部错误包装
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeInternal, "内部错误")
}

// 预定义错误
var (
	ErrNotFound         = New(CodeNotFound, "资源不存在")
	ErrInvalidInput     = New(CodeInvalidInput, "输入参数无效")
	ErrInternal         = New(CodeInternal, "内部错误")
	ErrTimeout          = New(CodeTimeout, "操作超时")
	ErrDatabaseDisabled = New(CodeDatabaseDisabled, "数据库未启用")
)

// InvalidInput 创建输入无效错误
func InvalidInput(field, reason string) *AppError {
	return New(CodeInvalidInput, fmt.Sprintf("字段 '%s' 无效: %s", field, reason))
}

// WorkbookFormat 创建工作簿格式错误
func WorkbookFormat(location, reason string) *AppError {
	return New(CodeWorkbookFormat, fmt.Sprintf("工作簿 %s 格式错误: %s", location, reason))
}

// InfeasibleDemand 创建需求不可行错误（携带每个超限日期的开放班表数）
func InfeasibleDemand(days map[string]int) *AppError {
	err := New(CodeInfeasibleDemand, "存在开放班表数超过员工数的日期，模型必然无解")
	for day, count := range days {
		err = err.WithField(day, count)
	}
	return err
}

// NoFeasibleSolution 创建无可行解错误
func NoFeasibleSolution(reason string) *AppError {
	return New(CodeNoFeasibleSolution, reason)
}

// ObjectiveMismatch 创建目标值校验失败错误
func ObjectiveMismatch(recomputed, reported, tolerance float64) *AppError {
	return New(CodeObjectiveMismatch, "重算目标值与求解器返回值不一致").
		WithField("recomputed", recomputed).
		WithField("reported", reported).
		WithField("tolerance", tolerance)
}

// UploadFailed 创建上传失败错误
func UploadFailed(reason string) *AppError {
	return New(CodeUploadFailed, fmt.Sprintf("结果文件上传失败: %s", reason))
}
