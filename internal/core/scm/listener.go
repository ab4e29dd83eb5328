package scm

import (
	"context"

	"go.uber.org/zap"
)

// MetadataContainer 构建元数据的存放位置
type MetadataContainer interface {
	Add(ctx context.Context, m SourceMetadata) error
}

// MemoryContainer 内存中的元数据容器
type MemoryContainer struct {
	Records []SourceMetadata
}

func (c *MemoryContainer) Add(_ context.Context, m SourceMetadata) error {
	c.Records = append(c.Records, m)
	return nil
}

// Listener 变更集解析完成后记录来源
type Listener struct {
	extractor *Extractor
	logger    *zap.Logger
}

func NewListener(extractor *Extractor, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{extractor: extractor, logger: logger}
}

// OnChangeLogParsed 提取来源并逐条写入容器
func (l *Listener) OnChangeLogParsed(ctx context.Context, run *Run, scm SCM, changelog ChangeLog, container MetadataContainer) error {
	records := l.extractor.Extract(run, scm, changelog)
	for _, m := range records {
		if err := container.Add(ctx, m); err != nil {
			return err
		}
	}
	if len(records) > 0 {
		l.logger.Info("记录构建来源", zap.Int("count", len(records)))
	}
	return nil
}
