package etjoborder

import (
	"encoding/json"
	"errors"
	"time"

	"jobsvc/internal/app/domains/entity/etprimitive"
)

// 默认参数
const (
	DefaultMaxRetry = 3
	DefaultTimeout  = 300 // 秒
)

var (
	ErrInvalidType      = errors.New("job order type cannot be empty")
	ErrInvalidMaxRetry  = errors.New("maxRetry must be a non-negative integer")
	ErrInvalidTimeout   = errors.New("timeout must be a non-negative integer")
	ErrInvalidRun       = errors.New("a run holds either a result or an error")
	ErrInvalidErrorType = errors.New("unknown job error type")
)

// JobStatus 任务单状态
type JobStatus string

const (
	// JobStatusCreating 创建中：仓储已落库，入队与通知尚未完成
	JobStatusCreating JobStatus = "creating"
	// JobStatusPending 等待处理
	JobStatusPending JobStatus = "pending"
	// JobStatusProcessing 处理中
	JobStatusProcessing JobStatus = "processing"
	// JobStatusCompleted 处理成功
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed 处理失败，可通过 resume 恢复
	JobStatusFailed JobStatus = "failed"
	// JobStatusCancelled 已取消（手动取消或过期）
	JobStatusCancelled JobStatus = "cancelled"
)

// Valid 是否为已知状态
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusCreating, JobStatusPending, JobStatusProcessing,
		JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// In 判断状态是否在集合中
func (s JobStatus) In(set []JobStatus) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}

// JobErrorType 处理错误类型
type JobErrorType string

const (
	JobErrorTypeUnprocessable JobErrorType = "unprocessable"
	JobErrorTypeError         JobErrorType = "error"
	JobErrorTypeTimeout       JobErrorType = "timeout"
)

// Valid 是否为已知错误类型
func (t JobErrorType) Valid() bool {
	return t == JobErrorTypeUnprocessable || t == JobErrorTypeError || t == JobErrorTypeTimeout
}

// JobError 单次处理的错误描述
type JobError struct {
	Type    JobErrorType        `json:"type"`
	Payload etprimitive.Payload `json:"payload,omitempty"`
}

// JobRun 单次处理结果，Result 与 Error 二选一
type JobRun struct {
	Result etprimitive.Payload `json:"result,omitempty"`
	Error  *JobError           `json:"error,omitempty"`
}

// MarshalJSON 只输出被填充的一侧，空 result（{}）也需要保留
func (r JobRun) MarshalJSON() ([]byte, error) {
	if r.Error != nil {
		return json.Marshal(struct {
			Error *JobError `json:"error"`
		}{r.Error})
	}
	result := r.Result
	if result == nil {
		result = etprimitive.Payload{}
	}
	return json.Marshal(struct {
		Result etprimitive.Payload `json:"result"`
	}{result})
}

// Validate 校验 run 只携带一种结果
func (r JobRun) Validate() error {
	if (r.Result == nil) == (r.Error == nil) {
		return ErrInvalidRun
	}
	if r.Error != nil && !r.Error.Type.Valid() {
		return ErrInvalidErrorType
	}
	return nil
}

// JobParams 任务单参数（已合并默认值）
type JobParams struct {
	MaxRetry  int        `json:"maxRetry"`
	Timeout   *int       `json:"timeout,omitempty"`
	Schedule  *time.Time `json:"schedule,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// JobParamsInput 调用方传入的参数，未设置的字段使用默认值
type JobParamsInput struct {
	MaxRetry  *int
	Timeout   *int
	Schedule  *time.Time
	ExpiresAt *time.Time
}

// DefaultParams 返回默认参数
func DefaultParams() JobParams {
	timeout := DefaultTimeout
	return JobParams{
		MaxRetry: DefaultMaxRetry,
		Timeout:  &timeout,
	}
}

// ResolveParams 将调用方参数覆盖到默认值之上
func ResolveParams(defaults JobParams, in JobParamsInput) (JobParams, error) {
	resolved := defaults
	if in.MaxRetry != nil {
		if *in.MaxRetry < 0 {
			return JobParams{}, ErrInvalidMaxRetry
		}
		resolved.MaxRetry = *in.MaxRetry
	}
	if in.Timeout != nil {
		if *in.Timeout < 0 {
			return JobParams{}, ErrInvalidTimeout
		}
		timeout := *in.Timeout
		resolved.Timeout = &timeout
	}
	if in.Schedule != nil {
		schedule := in.Schedule.UTC()
		resolved.Schedule = &schedule
	}
	if in.ExpiresAt != nil {
		expiresAt := in.ExpiresAt.UTC()
		resolved.ExpiresAt = &expiresAt
	}
	return resolved, nil
}

// JobOrder 任务单聚合根
type JobOrder struct {
	ID        string
	Type      string
	Payload   etprimitive.Payload
	Params    JobParams
	Status    JobStatus
	Runs      []JobRun
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewJobOrder 创建任务单（工厂方法），初始状态为 creating，ID 由仓储分配
func NewJobOrder(jobType string, payload etprimitive.Payload, params JobParams) (*JobOrder, error) {
	if jobType == "" {
		return nil, ErrInvalidType
	}
	if payload == nil {
		payload = etprimitive.Payload{}
	}
	now := time.Now().UTC()
	return &JobOrder{
		Type:      jobType,
		Payload:   payload,
		Params:    params,
		Status:    JobStatusCreating,
		Runs:      []JobRun{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Expired 判断在 asOf 时刻是否已过期
func (o *JobOrder) Expired(asOf time.Time) bool {
	return o.Params.ExpiresAt != nil && !asOf.Before(*o.Params.ExpiresAt)
}

// Attempts 已记录的处理次数
func (o *JobOrder) Attempts() int {
	return len(o.Runs)
}

// Clone 深拷贝，仓储返回的对象不与内部状态共享
func (o *JobOrder) Clone() *JobOrder {
	if o == nil {
		return nil
	}
	c := *o
	c.Payload = o.Payload.Clone()
	c.Params = o.Params.clone()
	c.Runs = make([]JobRun, len(o.Runs))
	for i, run := range o.Runs {
		c.Runs[i] = run.Clone()
	}
	return &c
}

func (p JobParams) clone() JobParams {
	c := p
	if p.Timeout != nil {
		v := *p.Timeout
		c.Timeout = &v
	}
	if p.Schedule != nil {
		v := *p.Schedule
		c.Schedule = &v
	}
	if p.ExpiresAt != nil {
		v := *p.ExpiresAt
		c.ExpiresAt = &v
	}
	return c
}

// Clone 深拷贝单次处理记录
func (r JobRun) Clone() JobRun {
	c := JobRun{Result: r.Result.Clone()}
	if r.Error != nil {
		c.Error = &JobError{Type: r.Error.Type, Payload: r.Error.Payload.Clone()}
	}
	return c
}
