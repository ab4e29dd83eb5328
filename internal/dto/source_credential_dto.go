package dto

import "gsource-auth/internal/core/source"

// SourceLookupRequest 查询适用于仓库的桥接凭据
// url 与 requirements 二选一；都为空时不加约束
type SourceLookupRequest struct {
	URL          string                     `json:"url" binding:"omitempty,max=2048"`
	Requirements []source.DomainRequirement `json:"requirements" binding:"omitempty,dive"`
	Type         string                     `json:"type"` // 默认 username_password
	ProjectID    *int64                     `json:"project_id"`
}

type SourceCredentialItem struct {
	ID            string `json:"id"`
	CredentialsID string `json:"credentials_id"`
	Strategy      string `json:"strategy"`
	Description   string `json:"description"`
	Binding       string `json:"binding"` // 持久化引用，保存到作业配置后可直接解析
}

type SourceLookupResponse struct {
	Items []SourceCredentialItem `json:"items"`
}

// SourceResolveRequest 以用户名/密码形式解析桥接凭据
// binding 优先于 id/strategy
type SourceResolveRequest struct {
	ID       string `json:"id" binding:"required_without=Binding"`
	Binding  string `json:"binding" binding:"omitempty,json"`
	URL      string `json:"url" binding:"omitempty,max=2048"`
	Strategy string `json:"strategy" binding:"omitempty,oneof=GERRIT CLOUD_PLATFORM"`
}

type SourceResolveResponse struct {
	ID       string `json:"id"`
	Strategy string `json:"strategy"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// SourceRemoteResponse 交给构建 agent 的快照，data 为 base64(CBOR)
type SourceRemoteResponse struct {
	ID        string   `json:"id"`
	Strategy  string   `json:"strategy"`
	Username  string   `json:"username"`
	Scopes    []string `json:"scopes"`
	ExpiresAt string   `json:"expires_at,omitempty"`
	Data      string   `json:"data"`
}

// SourceVerifyRequest 使用桥接凭据访问仓库
type SourceVerifyRequest struct {
	ID  string `json:"id" binding:"required"`
	URL string `json:"url" binding:"required,url"`
}

type SourceVerifyResponse struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	Strategy   string `json:"strategy"`
	OK         bool   `json:"ok"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message,omitempty"`
}
