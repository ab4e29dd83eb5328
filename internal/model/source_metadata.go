package model

import "time"

const SourceMetadataTableName = "source_metadata"

// SourceMetadata 构建使用的源码来源
type SourceMetadata struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BuildID    int64     `gorm:"column:build_id;not null;index" json:"build_id"`
	Seq        int       `gorm:"not null" json:"seq"`
	SCM        string    `gorm:"column:scm;size:32;not null" json:"scm"`
	RepoURL    string    `gorm:"column:repo_url;size:500" json:"repo_url"`
	Branch     string    `gorm:"size:255" json:"branch"`
	Revision   string    `gorm:"size:64;index" json:"revision"`
	LastAuthor string    `gorm:"size:255" json:"last_author"`
	CreatedAt  time.Time `json:"created_at"`
}

func (SourceMetadata) TableName() string {
	return SourceMetadataTableName
}
