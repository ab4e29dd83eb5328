package dto

import "encoding/json"

// CreateRobotCredentialRequest 创建 robot 凭据请求
// key: service_account 类型的 JSON key，加密存储，服务端不会回传
type CreateRobotCredentialRequest struct {
	Scope         string          `json:"scope" binding:"required,oneof=global project"`
	ProjectID     *int64          `json:"project_id"`
	Name          string          `json:"name" binding:"required,max=128"`
	Kind          string          `json:"kind" binding:"required,oneof=service_account application_default"`
	Key           json.RawMessage `json:"key"`
	Email         string          `json:"email" binding:"omitempty,email"` // application_default 可选
	AllowedScopes []string        `json:"allowed_scopes" binding:"omitempty,dive,oauth_scope"`
}

type UpdateRobotCredentialRequest struct {
	Name          string          `json:"name" binding:"required,max=128"`
	Key           json.RawMessage `json:"key"` // 可选，更新密文
	Email         *string         `json:"email" binding:"omitempty,email"`
	AllowedScopes []string        `json:"allowed_scopes" binding:"omitempty,dive,oauth_scope"`
}

type ListRobotCredentialQuery struct {
	PageQuery
	Scope     string `form:"scope" binding:"omitempty,oneof=global project"`
	ProjectID *int64 `form:"project_id"`
}

type RobotCredentialResponse struct {
	ID            int64    `json:"id"`
	CredentialsID string   `json:"credentials_id"`
	Scope         string   `json:"scope"`
	ProjectID     *int64   `json:"project_id,omitempty"`
	Name          string   `json:"name"`
	Kind          string   `json:"kind"`
	Email         string   `json:"email,omitempty"`
	AllowedScopes []string `json:"allowed_scopes,omitempty"`
	LastProbedAt  string   `json:"last_probed_at,omitempty"`
	LastStatus    string   `json:"last_status,omitempty"`
	LastMessage   string   `json:"last_message,omitempty"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

// RobotCredentialMeta meta_json 中保存的非敏感字段
type RobotCredentialMeta struct {
	Email     string `json:"email,omitempty"`
	ProjectID string `json:"gcp_project_id,omitempty"`
}

// ProbeResult 单个 robot 凭据的探测结果
type ProbeResult struct {
	ID       int64    `json:"id"`
	Status   string   `json:"status"`
	Message  string   `json:"message,omitempty"`
	Scopes   []string `json:"scopes"`
	ProbedAt string   `json:"probed_at"`
}
