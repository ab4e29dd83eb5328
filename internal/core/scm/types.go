package scm

// Run 已完成的构建
type Run struct {
	Number  int
	Actions []any
}

// ActionsOf 返回构建上某一类型的全部 action
func ActionsOf[T any](run *Run) []T {
	if run == nil {
		return nil
	}
	var out []T
	for _, a := range run.Actions {
		if v, ok := a.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// GitBuildData git 插件记录在构建上的数据
type GitBuildData struct {
	RemoteURLs        []string
	LastBuiltRevision string
	// BuildsByBranch 分支名到该分支最近一次构建号
	BuildsByBranch map[string]int
}

// MercurialTagAction mercurial 插件记录的检出版本
type MercurialTagAction struct {
	Subdir string
	ID     string
}

// SCM 项目的源码配置
type SCM interface {
	Type() string
}

// GitSCM git 源码配置，元数据只来自构建 action
type GitSCM struct {
	URLs []string
}

func (GitSCM) Type() string { return TypeGit }

// MercurialSCM mercurial 源码配置
type MercurialSCM struct {
	Source string
	Branch string
	Subdir string
}

func (MercurialSCM) Type() string { return TypeMercurial }

// MultiSCM 多个源码配置的组合
type MultiSCM struct {
	SCMs []SCM
}

func (MultiSCM) Type() string { return TypeMultiSCM }

// SCM 类型
const (
	TypeGit       = "git"
	TypeMercurial = "mercurial"
	TypeMultiSCM  = "multi"
)

// ChangeLogEntry 一次变更
type ChangeLogEntry struct {
	AuthorID string
	CommitID string
	Message  string
}

// ChangeLog 本次构建的变更集，最新的在前
type ChangeLog struct {
	Entries []ChangeLogEntry
}

// LatestAuthor 最新变更的作者，空变更集返回空字符串
func (c ChangeLog) LatestAuthor() string {
	if len(c.Entries) == 0 {
		return ""
	}
	return c.Entries[0].AuthorID
}
