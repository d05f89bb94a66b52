package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/youpai/youpai/internal/repository"
	"github.com/youpai/youpai/pkg/errors"
)

// RunsHandler 运行历史处理器
type RunsHandler struct {
	store repository.RunRepositoryInterface // 可为nil（运行历史未启用）
}

// NewRunsHandler 创建运行历史处理器
func NewRunsHandler(store repository.RunRepositoryInterface) *RunsHandler {
	return &RunsHandler{store: store}
}

// ListRunsResponse 运行历史列表响应
type ListRunsResponse struct {
	Runs   []*repository.Run `json:"runs"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// List 查询运行历史
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}
	if h.store == nil {
		respondError(w, errors.New(errors.CodeDatabaseDisabled, "运行历史功能未启用"))
		return
	}

	filter := repository.DefaultListFilter()
	q := r.URL.Query()

	if status := q.Get("status"); status != "" {
		if status != repository.RunStatusSuccess && status != repository.RunStatusFailed {
			respondError(w, errors.InvalidInput("status", "只支持 success 或 failed"))
			return
		}
		filter = filter.WithStatus(status)
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > 100 {
			respondError(w, errors.InvalidInput("limit", "应为1到100之间的整数"))
			return
		}
		filter = filter.WithLimit(limit)
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			respondError(w, errors.InvalidInput("offset", "应为非负整数"))
			return
		}
		filter = filter.WithOffset(offset)
	}
	if start, end := q.Get("start_date"), q.Get("end_date"); start != "" || end != "" {
		filter = filter.WithDateRange(start, end)
	}

	runs, total, err := h.store.List(r.Context(), filter)
	if err != nil {
		respondError(w, errors.From(err))
		return
	}
	if runs == nil {
		runs = []*repository.Run{}
	}

	respondJSON(w, http.StatusOK, ListRunsResponse{
		Runs:   runs,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// Get 查询单次运行
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}
	if h.store == nil {
		respondError(w, errors.New(errors.CodeDatabaseDisabled, "运行历史功能未启用"))
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/runs/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, errors.InvalidInput("id", "无效的运行ID格式"))
		return
	}

	run, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, errors.From(err))
		return
	}
	if run == nil {
		respondError(w, errors.New(errors.CodeNotFound, "运行记录不存在"))
		return
	}

	respondJSON(w, http.StatusOK, run)
}
