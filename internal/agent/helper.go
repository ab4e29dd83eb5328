package agent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"gsource-auth/internal/core/source"
)

// Request git credential helper 协议的输入
type Request struct {
	Protocol string
	Host     string
	Path     string
}

// ParseRequest 读取 key=value 行，直到空行或 EOF
func ParseRequest(r io.Reader) (Request, error) {
	var req Request
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			break
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "protocol":
			req.Protocol = value
		case "host":
			req.Host = value
		case "path":
			req.Path = value
		case "url":
			if parsed, err := requestFromURL(value); err == nil {
				req = parsed
			}
		}
	}
	return req, scanner.Err()
}

func requestFromURL(raw string) (Request, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return Request{}, fmt.Errorf("无效的仓库地址: %s", raw)
	}
	host, path, _ := strings.Cut(rest, "/")
	return Request{Protocol: scheme, Host: host, Path: path}, nil
}

// URL 请求对应的仓库地址
func (r Request) URL() string {
	if r.Protocol == "" || r.Host == "" {
		return ""
	}
	u := r.Protocol + "://" + r.Host
	if r.Path != "" {
		u += "/" + strings.TrimPrefix(r.Path, "/")
	}
	return u
}

// Helper 在 agent 上以快照应答 git 的凭据请求，不访问凭据仓库
type Helper struct {
	snapshots []string
	logger    *zap.Logger
}

func NewHelper(snapshots []string, logger *zap.Logger) *Helper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Helper{snapshots: snapshots, logger: logger}
}

// Get 按顺序尝试快照，第一个策略匹配地址的快照写出用户名/密码；都不匹配时不输出
func (h *Helper) Get(ctx context.Context, req Request, w io.Writer) error {
	reqs := source.RequirementsFromURI(req.URL())
	if len(reqs) == 0 {
		return nil
	}

	for _, path := range h.snapshots {
		cred, err := loadSnapshot(path)
		if err != nil {
			h.logger.Warn("读取凭据快照失败", zap.String("file", path), zap.Error(err))
			continue
		}
		if !cred.Matches(reqs) {
			h.logger.Debug("快照策略不匹配",
				zap.String("file", path),
				zap.String("strategy", cred.Strategy().Name()),
				zap.String("hosts", cred.Strategy().Domain().HostPatterns()))
			continue
		}

		username, err := cred.Username(ctx)
		if err != nil {
			return err
		}
		password, err := cred.Password(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "username=%s\npassword=%s\n", username, password.PlainText())
		return err
	}
	return nil
}

func loadSnapshot(path string) (*source.TranslatedCredential, error) {
	if path == "" {
		return nil, errors.New("未指定快照文件")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return source.Decode(data, source.AgentHost())
}
