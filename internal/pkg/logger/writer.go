package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// GormWriter 将 gorm 的 SQL 日志转给 zap
type GormWriter struct {
	log *zap.Logger
}

func NewGormWriter(l *zap.Logger) *GormWriter {
	if l == nil {
		l = Log
	}
	return &GormWriter{log: l.WithOptions(zap.WithCaller(false))}
}

// Printf gorm 的输出已带文件位置与耗时，去掉多余换行后整体作为 msg
func (w *GormWriter) Printf(format string, args ...interface{}) {
	msg := strings.TrimSpace(fmt.Sprintf(format, args...))
	if strings.Contains(msg, "[error]") || strings.Contains(msg, "SLOW SQL") {
		w.log.Warn(msg)
		return
	}
	w.log.Info(msg)
}
