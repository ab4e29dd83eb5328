package scm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeFrom(t *testing.T) {
	a := SourceMetadata{SCM: "mercurial", Revision: "abc", LastAuthor: "alice"}
	b := SourceMetadata{SCM: "ignored", RepoURL: "https://hg/x", Branch: "default", Revision: "zzz"}

	got := a.MergeFrom(b)
	assert.Equal(t, SourceMetadata{
		SCM:        "mercurial",
		RepoURL:    "https://hg/x",
		Branch:     "default",
		Revision:   "abc",
		LastAuthor: "alice",
	}, got)

	// 原值不变
	assert.Empty(t, a.RepoURL)
	assert.Equal(t, MetadataKey, got.Key())
}

func TestLatestAuthor(t *testing.T) {
	assert.Equal(t, "", ChangeLog{}.LatestAuthor())
	assert.Equal(t, "first", ChangeLog{Entries: []ChangeLogEntry{{AuthorID: "first"}, {AuthorID: "second"}}}.LatestAuthor())
}
