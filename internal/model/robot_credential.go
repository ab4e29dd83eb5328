package model

import (
	"time"

	"gorm.io/datatypes"
)

const RobotCredentialTableName = "robot_credentials"

// Scope 凭据可见范围
type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeProject Scope = "project"
)

// RobotCredential Google 服务账号凭据（key 加密存储）
//
// 说明：
// - encrypted_data: AES-GCM(base64) 密文，service_account 类型为 JSON key
// - allowed_scopes: 允许申请的 OAuth scope，空表示不限制
// - meta_json: 非敏感字段（client_email、project_id 等，用于列表展示）
type RobotCredential struct {
	BaseModelWithSoftDelete

	Scope     Scope  `gorm:"size:16;not null;index" json:"scope"`
	ProjectID *int64 `gorm:"column:project_id;index" json:"project_id,omitempty"`
	Name      string `gorm:"size:128;not null" json:"name"`
	Kind      string `gorm:"size:32;not null" json:"kind"` // service_account/application_default

	EncryptedData string                      `gorm:"column:encrypted_data;type:longtext" json:"-"`
	AllowedScopes datatypes.JSONSlice[string] `gorm:"column:allowed_scopes;type:json" json:"allowed_scopes,omitempty"`
	MetaJSON      datatypes.JSON              `gorm:"column:meta_json;type:json" json:"meta_json,omitempty"`

	// 最近一次探测结果
	LastProbedAt *time.Time `gorm:"column:last_probed_at" json:"last_probed_at,omitempty"`
	LastStatus   string     `gorm:"column:last_status;size:16" json:"last_status,omitempty"` // success/failed
	LastMessage  string     `gorm:"column:last_message;type:text" json:"last_message,omitempty"`
}

func (RobotCredential) TableName() string {
	return RobotCredentialTableName
}
