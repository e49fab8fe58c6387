package entity

import (
	"time"

	"gorm.io/datatypes"
)

// JobOrder 任务单实体（payload/params/runs 以 JSON 列存储）
type JobOrder struct {
	ID      string         `gorm:"column:id;primaryKey;type:varchar(64)"`
	Type    string         `gorm:"column:type;type:varchar(128);not null;index:idx_type_status"`
	Payload datatypes.JSON `gorm:"column:payload;type:json;not null"`
	Params  datatypes.JSON `gorm:"column:params;type:json;not null"`
	Runs    datatypes.JSON `gorm:"column:runs;type:json;not null"`

	// 状态与过期时间（expires_at 冗余一列，供过期扫描使用）
	Status    string     `gorm:"column:status;type:varchar(16);not null;default:'creating';index:idx_type_status;index:idx_status_expires"`
	ExpiresAt *time.Time `gorm:"column:expires_at;index:idx_status_expires"`

	CreatedAt time.Time `gorm:"column:created_at;not null;index:idx_created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (JobOrder) TableName() string {
	return "job_orders"
}
