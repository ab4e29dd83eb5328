package git

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	uploadPackService     = "git-upload-pack"
	advertisementMIMEType = "application/x-git-upload-pack-advertisement"
)

// Client 通过 smart HTTP 协议探测仓库访问权限
type Client struct {
	httpClient *http.Client
}

// VerifyResult 探测结果
type VerifyResult struct {
	StatusCode int
	Refs       int    // 服务端公布的 ref 数量
	Head       string // HEAD 指向的提交
}

// NewClient 创建客户端，timeout 为 0 时使用 30 秒
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewClientWithHTTP 使用自定义 http.Client
func NewClientWithHTTP(httpClient *http.Client) *Client {
	return &Client{httpClient: httpClient}
}

// infoRefsURL <repo>/info/refs?service=git-upload-pack
func infoRefsURL(repoURL string) string {
	return strings.TrimSuffix(repoURL, "/") + "/info/refs?service=" + uploadPackService
}

// Verify 以 Basic 认证请求 ref 公告，能读取到 ref 即视为有访问权限
func (c *Client) Verify(ctx context.Context, repoURL, username, password string) (*VerifyResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, infoRefsURL(repoURL), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(username, password)
	req.Header.Set("Git-Protocol", "version=1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	result := &VerifyResult{StatusCode: resp.StatusCode}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return result, fmt.Errorf("访问仓库失败 (状态码: %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if ct := resp.Header.Get("Content-Type"); ct != advertisementMIMEType {
		return result, fmt.Errorf("仓库不支持 smart HTTP 协议 (Content-Type: %s)", ct)
	}

	refs, head, err := readAdvertisement(resp.Body)
	if err != nil {
		return result, err
	}
	result.Refs = refs
	result.Head = head
	return result, nil
}

// readAdvertisement 解析 pkt-line 格式的 ref 公告
func readAdvertisement(r io.Reader) (int, string, error) {
	br := bufio.NewReader(r)
	refs := 0
	head := ""
	for {
		line, flush, err := readPktLine(br)
		if err == io.EOF {
			return refs, head, nil
		}
		if err != nil {
			return refs, head, err
		}
		if flush || strings.HasPrefix(line, "# service=") {
			continue
		}
		// "<sha> <ref>\x00<capabilities>"
		line = strings.TrimSuffix(line, "\n")
		if i := strings.IndexByte(line, 0); i >= 0 {
			line = line[:i]
		}
		sha, ref, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		refs++
		if ref == "HEAD" {
			head = sha
		}
	}
}

func readPktLine(r *bufio.Reader) (string, bool, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return "", false, err
	}
	n, err := strconv.ParseUint(string(hdr[:]), 16, 16)
	if err != nil {
		return "", false, fmt.Errorf("非法的 pkt-line 长度 %q", hdr[:])
	}
	if n == 0 {
		return "", true, nil
	}
	if n < 4 {
		return "", false, fmt.Errorf("非法的 pkt-line 长度 %d", n)
	}
	buf := make([]byte, n-4)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", false, err
	}
	return string(buf), false, nil
}
