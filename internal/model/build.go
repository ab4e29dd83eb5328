package model

import (
	"time"

	"gorm.io/datatypes"
)

const BuildTableName = "builds"

// Build 构建记录
type Build struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID *int64 `gorm:"column:project_id;index" json:"project_id,omitempty"`
	Job       string `gorm:"size:255;not null;uniqueIndex:uk_job_build_number" json:"job"`

	BuildNumber int    `gorm:"not null;uniqueIndex:uk_job_build_number" json:"build_number"`
	BuildStatus string `gorm:"size:20;not null;index" json:"build_status"` // success/failure/error/killed
	BuildLink   string `gorm:"size:255" json:"build_link"`

	// 原始 SCM 配置、构建 action 与变更集
	SCMJSON datatypes.JSON `gorm:"column:scm_json;type:json" json:"scm_json,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Sources []SourceMetadata `gorm:"foreignKey:BuildID" json:"sources,omitempty"`
}

// TableName 指定表名
func (Build) TableName() string {
	return BuildTableName
}
