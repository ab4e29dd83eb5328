package scm

import (
	"go.uber.org/zap"

	"gsource-auth/pkg/constants"
)

// Entry 带去重键的来源记录，Key 为空表示不去重
type Entry struct {
	Key      string
	Metadata SourceMetadata
}

// BuildActionExtractor 从构建 action 提取来源
type BuildActionExtractor interface {
	Name() string
	FromBuildActions(run *Run, changelog ChangeLog) []Entry
}

// SCMExtractor 从某类 SCM 配置提取来源
type SCMExtractor interface {
	Name() string
	Applicable(scm SCM) bool
	// FromSCM nested 用于组合型 SCM 递归提取
	FromSCM(scm SCM, nested func(SCM) []Entry) []Entry
}

// Extractor 按注册顺序运行全部提取器并合并结果
type Extractor struct {
	actions []BuildActionExtractor
	scms    []SCMExtractor
	logger  *zap.Logger
}

// NewExtractor 显式注册提取器
func NewExtractor(actions []BuildActionExtractor, scms []SCMExtractor, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		actions: actions,
		scms:    scms,
		logger:  logger,
	}
}

// NewExtractorForPlugins 按已安装的 SCM 插件启用提取器
func NewExtractorForPlugins(plugins []string, logger *zap.Logger) *Extractor {
	installed := make(map[string]bool, len(plugins))
	for _, p := range plugins {
		installed[p] = true
	}

	var actions []BuildActionExtractor
	var scms []SCMExtractor
	if installed[constants.SCMPluginGit] {
		actions = append(actions, GitBuildActions{})
	}
	if installed[constants.SCMPluginMercurial] {
		actions = append(actions, MercurialBuildActions{})
		scms = append(scms, MercurialSCMExtractor{})
	}
	if installed[constants.SCMPluginMultiSCM] {
		scms = append(scms, MultiSCMExtractor{})
	}
	return NewExtractor(actions, scms, logger)
}

// Names 已启用的提取器名称
func (x *Extractor) Names() []string {
	names := make([]string, 0, len(x.actions)+len(x.scms))
	for _, a := range x.actions {
		names = append(names, a.Name())
	}
	for _, s := range x.scms {
		names = append(names, s.Name())
	}
	return names
}

// FromBuildActions 运行全部 action 提取器
func (x *Extractor) FromBuildActions(run *Run, changelog ChangeLog) []Entry {
	if run == nil {
		return nil
	}
	var out []Entry
	for _, a := range x.actions {
		out = append(out, a.FromBuildActions(run, changelog)...)
	}
	return out
}

// FromSCM 运行适用于该 SCM 的提取器
func (x *Extractor) FromSCM(scm SCM) []Entry {
	if scm == nil {
		return nil
	}
	var out []Entry
	for _, s := range x.scms {
		if s.Applicable(scm) {
			out = append(out, s.FromSCM(scm, x.FromSCM)...)
		}
	}
	return out
}

// Extract 提取构建的全部来源记录
//
// 相同非空键的记录按出现顺序用 MergeFrom 合并，
// 空键记录不去重，追加在合并结果之后。
func (x *Extractor) Extract(run *Run, scm SCM, changelog ChangeLog) []SourceMetadata {
	entries := append(x.FromBuildActions(run, changelog), x.FromSCM(scm)...)

	var keys []string
	merged := make(map[string]SourceMetadata)
	var notDeduped []SourceMetadata
	for _, e := range entries {
		if e.Key == "" {
			notDeduped = append(notDeduped, e.Metadata)
			continue
		}
		if prev, ok := merged[e.Key]; ok {
			merged[e.Key] = prev.MergeFrom(e.Metadata)
			continue
		}
		keys = append(keys, e.Key)
		merged[e.Key] = e.Metadata
	}

	out := make([]SourceMetadata, 0, len(keys)+len(notDeduped))
	for _, k := range keys {
		out = append(out, merged[k])
	}
	out = append(out, notDeduped...)
	x.logger.Debug("提取来源记录", zap.Int("entries", len(entries)), zap.Int("records", len(out)))
	return out
}
