package agent

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"gsource-auth/internal/dto"
	"gsource-auth/pkg/constants"
	pkgErrors "gsource-auth/pkg/errors"
	"gsource-auth/pkg/responses"
)

const remotePath = "/api/v1/source-credentials/remote"

// Fetcher 从控制端获取凭据快照
type Fetcher struct {
	controllerURL string
	token         string
	httpClient    *http.Client
}

func NewFetcher(controllerURL, token string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		controllerURL: strings.TrimRight(controllerURL, "/"),
		token:         token,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// Fetch 请求控制端签发快照，返回解码后的快照内容
func (f *Fetcher) Fetch(ctx context.Context, req *dto.SourceResolveRequest) (*dto.SourceRemoteResponse, []byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, f.controllerURL+remotePath, bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if f.token != "" {
		httpReq.Header.Set(constants.HeaderAuthorization, constants.HeaderBearerPrefix+f.token)
	}

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return nil, nil, fmt.Errorf("请求控制端失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("控制端返回 HTTP %d", resp.StatusCode)
	}

	var envelope struct {
		responses.Response
		Data *dto.SourceRemoteResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, nil, fmt.Errorf("解析控制端响应失败: %w", err)
	}
	if envelope.Code != pkgErrors.CodeSuccess {
		return nil, nil, pkgErrors.Wrap(envelope.Code, envelope.Message, detailError(envelope.Detail))
	}
	if envelope.Data == nil {
		return nil, nil, fmt.Errorf("控制端响应缺少 data")
	}

	blob, err := base64.StdEncoding.DecodeString(envelope.Data.Data)
	if err != nil {
		return nil, nil, pkgErrors.Wrap(pkgErrors.CodeCodecError, "快照不是合法的 base64", err)
	}
	return envelope.Data, blob, nil
}

// WriteSnapshot 快照包含 access token，只允许当前用户读写
func WriteSnapshot(path string, blob []byte) error {
	return os.WriteFile(path, blob, 0o600)
}

func detailError(detail string) error {
	if detail == "" {
		return nil
	}
	return fmt.Errorf("%s", detail)
}
