package scm

import (
	"sort"

	"github.com/samber/lo"
)

// GitBuildActions 从 git 构建数据提取来源
type GitBuildActions struct{}

func (GitBuildActions) Name() string { return "git-build-actions" }

// FromBuildActions 每个远端地址一条记录，不去重
func (GitBuildActions) FromBuildActions(run *Run, changelog ChangeLog) []Entry {
	author := changelog.LatestAuthor()
	var out []Entry
	for _, data := range ActionsOf[*GitBuildData](run) {
		branch := branchForBuild(run.Number, data)
		for _, url := range data.RemoteURLs {
			out = append(out, Entry{
				Metadata: SourceMetadata{
					SCM:        NameGit,
					RepoURL:    url,
					Branch:     branch,
					Revision:   data.LastBuiltRevision,
					LastAuthor: author,
				},
			})
		}
	}
	return out
}

// branchForBuild 记录的构建号等于当前构建号的分支，多个时取名称最大的
func branchForBuild(number int, data *GitBuildData) string {
	branches := lo.Keys(data.BuildsByBranch)
	sort.Strings(branches)
	branch := ""
	for _, name := range branches {
		if data.BuildsByBranch[name] == number {
			branch = name
		}
	}
	return branch
}
