package scm

// MercurialDedupeKey 同一 subdir 下 action 与 SCM 配置的记录合并为一条
func MercurialDedupeKey(subdir string) string {
	return "mercurial:" + subdir
}

// MercurialBuildActions 从 mercurial tag action 提取版本
type MercurialBuildActions struct{}

func (MercurialBuildActions) Name() string { return "mercurial-build-actions" }

func (MercurialBuildActions) FromBuildActions(run *Run, changelog ChangeLog) []Entry {
	author := changelog.LatestAuthor()
	var out []Entry
	for _, tag := range ActionsOf[*MercurialTagAction](run) {
		out = append(out, Entry{
			Key: MercurialDedupeKey(tag.Subdir),
			Metadata: SourceMetadata{
				SCM:        NameMercurial,
				Revision:   tag.ID,
				LastAuthor: author,
			},
		})
	}
	return out
}

// MercurialSCMExtractor 从 mercurial 配置提取仓库地址与分支
type MercurialSCMExtractor struct{}

func (MercurialSCMExtractor) Name() string { return "mercurial-scm" }

func (MercurialSCMExtractor) Applicable(scm SCM) bool {
	_, ok := asMercurial(scm)
	return ok
}

func (MercurialSCMExtractor) FromSCM(scm SCM, _ func(SCM) []Entry) []Entry {
	hg, ok := asMercurial(scm)
	if !ok {
		return nil
	}
	return []Entry{{
		Key: MercurialDedupeKey(hg.Subdir),
		Metadata: SourceMetadata{
			SCM:     NameMercurial,
			RepoURL: hg.Source,
			Branch:  hg.Branch,
		},
	}}
}

func asMercurial(scm SCM) (*MercurialSCM, bool) {
	switch v := scm.(type) {
	case *MercurialSCM:
		return v, v != nil
	case MercurialSCM:
		return &v, true
	default:
		return nil, false
	}
}
