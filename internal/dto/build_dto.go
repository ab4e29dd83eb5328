package dto

// BuildNotifyRequest 构建通知：变更集解析完成后由 CI 上报
type BuildNotifyRequest struct {
	Job         string `json:"job" binding:"required,max=255"`
	ProjectID   *int64 `json:"project_id"`
	BuildNumber int    `json:"build_number" binding:"required,min=1"`
	BuildStatus string `json:"build_status" binding:"omitempty,oneof=success failure error killed running"`
	BuildLink   string `json:"build_link" binding:"omitempty,url"`

	SCM       *SCMSpec         `json:"scm"`
	Actions   BuildActionsSpec `json:"actions"`
	ChangeLog []ChangeLogSpec  `json:"changelog" binding:"omitempty,dive"` // 最新的在前
}

// SCMSpec 项目的 SCM 配置，type=multi 时 scms 为子配置
type SCMSpec struct {
	Type   string    `json:"type" binding:"required,oneof=git mercurial multi"`
	URLs   []string  `json:"urls,omitempty"`
	Source string    `json:"source,omitempty"`
	Branch string    `json:"branch,omitempty"`
	Subdir string    `json:"subdir,omitempty"`
	SCMs   []SCMSpec `json:"scms,omitempty"`
}

// BuildActionsSpec SCM 插件记录在构建上的 action
type BuildActionsSpec struct {
	Git       []GitBuildDataSpec       `json:"git,omitempty"`
	Mercurial []MercurialTagActionSpec `json:"mercurial,omitempty"`
}

type GitBuildDataSpec struct {
	RemoteURLs        []string       `json:"remote_urls"`
	LastBuiltRevision string         `json:"last_built_revision"`
	BuildsByBranch    map[string]int `json:"builds_by_branch"`
}

type MercurialTagActionSpec struct {
	Subdir string `json:"subdir"`
	ID     string `json:"id"`
}

type ChangeLogSpec struct {
	AuthorID string `json:"author_id" binding:"required"`
	CommitID string `json:"commit_id"`
	Message  string `json:"message"`
}

type SourceMetadataResponse struct {
	SCM        string `json:"scm"`
	RepoURL    string `json:"repo_url"`
	Branch     string `json:"branch"`
	Revision   string `json:"revision"`
	LastAuthor string `json:"last_author"`
}

// BuildResponse 构建记录响应
type BuildResponse struct {
	ID          int64                    `json:"id"`
	Job         string                   `json:"job"`
	ProjectID   *int64                   `json:"project_id,omitempty"`
	BuildNumber int                      `json:"build_number"`
	BuildStatus string                   `json:"build_status"`
	BuildLink   string                   `json:"build_link,omitempty"`
	Sources     []SourceMetadataResponse `json:"sources"`
	CreatedAt   string                   `json:"created_at"`
}
