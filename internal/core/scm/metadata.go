package scm

import "fmt"

// MetadataKey 构建元数据中来源记录的键
const MetadataKey = "source"

// SCM 名称
const (
	NameGit       = "git"
	NameMercurial = "mercurial"
)

// SourceMetadata 构建使用的源码来源
type SourceMetadata struct {
	SCM        string `json:"scm"`
	RepoURL    string `json:"repo_url"`
	Branch     string `json:"branch"`
	Revision   string `json:"revision"`
	LastAuthor string `json:"last_author"`
}

// Key 元数据键
func (m SourceMetadata) Key() string {
	return MetadataKey
}

// MergeFrom 返回副本，空字段用 other 的值填充
func (m SourceMetadata) MergeFrom(other SourceMetadata) SourceMetadata {
	return SourceMetadata{
		SCM:        firstNonEmpty(m.SCM, other.SCM),
		RepoURL:    firstNonEmpty(m.RepoURL, other.RepoURL),
		Branch:     firstNonEmpty(m.Branch, other.Branch),
		Revision:   firstNonEmpty(m.Revision, other.Revision),
		LastAuthor: firstNonEmpty(m.LastAuthor, other.LastAuthor),
	}
}

func (m SourceMetadata) String() string {
	return fmt.Sprintf("SourceMetadata{scm=%s, repoUrl=%s, branch=%s, revision=%s, lastAuthor=%s}",
		m.SCM, m.RepoURL, m.Branch, m.Revision, m.LastAuthor)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
