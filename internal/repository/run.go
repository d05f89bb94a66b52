package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// 运行状态
const (
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
)

// Run 优化运行记录
type Run struct {
	ID           uuid.UUID `json:"id"`
	Status       string    `json:"status"` // success/failed
	Objective    float64   `json:"objective"`
	Optimal      bool      `json:"optimal"`
	Assignments  int       `json:"assignments"`
	Violations   int       `json:"violations"`
	DurationMs   int64     `json:"duration_ms"`
	DownloadURL  string    `json:"download_url,omitempty"`
	ErrorCode    string    `json:"error_code,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// RunRepositoryInterface 运行历史仓储接口
//
// 运行记录是只追加的审计数据，不提供更新与删除。
type RunRepositoryInterface interface {
	Create(ctx context.Context, run *Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*Run, error)
	List(ctx context.Context, filter ListFilter) ([]*Run, int, error)
}

// RunRepository 运行历史仓储实现
type RunRepository struct {
	db DB
}

// NewRunRepository 创建运行历史仓储
func NewRunRepository(db DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create 创建运行记录
func (r *RunRepository) Create(ctx context.Context, run *Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO runs (
			id, status, objective, optimal, assignments, violations,
			duration_ms, download_url, error_code, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.Status, run.Objective, run.Optimal, run.Assignments, run.Violations,
		run.DurationMs, run.DownloadURL, run.ErrorCode, run.ErrorMessage, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建运行记录失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取运行记录
func (r *RunRepository) GetByID(ctx context.Context, id uuid.UUID) (*Run, error) {
	query := `
		SELECT id, status, objective, optimal, assignments, violations,
			duration_ms, download_url, error_code, error_message, created_at
		FROM runs
		WHERE id = $1
	`

	return r.scanRun(r.db.QueryRowContext(ctx, query, id))
}

// List 列出运行记录
func (r *RunRepository) List(ctx context.Context, filter ListFilter) ([]*Run, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, filter.Status)
		argNum++
	}

	if filter.StartDate != "" {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argNum))
		args = append(args, filter.StartDate)
		argNum++
	}

	if filter.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argNum))
		args = append(args, filter.EndDate)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// 计数
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM runs %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计运行记录失败: %w", err)
	}

	// 查询
	query := fmt.Sprintf(`
		SELECT id, status, objective, optimal, assignments, violations,
			duration_ms, download_url, error_code, error_message, created_at
		FROM runs %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, filter.OrderBy, filter.OrderDir, argNum, argNum+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询运行记录失败: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := r.scanRunFrom(rows)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, run)
	}

	return runs, total, nil
}

// scanRun 扫描单行运行记录
func (r *RunRepository) scanRun(row *sql.Row) (*Run, error) {
	run, err := scanRunFields(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描运行记录失败: %w", err)
	}
	return run, nil
}

// scanRunFrom 从多行结果扫描
func (r *RunRepository) scanRunFrom(rows *sql.Rows) (*Run, error) {
	run, err := scanRunFields(rows)
	if err != nil {
		return nil, fmt.Errorf("扫描运行记录失败: %w", err)
	}
	return run, nil
}

// scanRunFields 按列序扫描运行记录
func scanRunFields(s Scanner) (*Run, error) {
	run := &Run{}
	var objective sql.NullFloat64
	var downloadURL, errorCode, errorMessage sql.NullString

	err := s.Scan(
		&run.ID, &run.Status, &objective, &run.Optimal, &run.Assignments, &run.Violations,
		&run.DurationMs, &downloadURL, &errorCode, &errorMessage, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	run.Objective = objective.Float64
	run.DownloadURL = downloadURL.String
	run.ErrorCode = errorCode.String
	run.ErrorMessage = errorMessage.String

	return run, nil
}
