// Package client 是 cmd/api 的 HTTP SDK：
// 身份（identity.Authenticator / TokenHolder）、房源网关和收藏标记存储都走这里。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"property-listing/internal/identity"
	resp "property-listing/internal/transport/http/response"
	apperrors "property-listing/pkg/errors"
)

const apiPrefix = "/api/v1"

type Client struct {
	base string
	hc   *http.Client
	log  *zap.Logger

	mu    sync.RWMutex
	token string
}

var _ identity.TokenHolder = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.hc.Timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		hc:   &http.Client{Timeout: 10 * time.Second},
		log:  zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetToken 登录/退出时由 identity.Session 调用
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do 发请求并解信封；网络错误一律 RemoteUnavailable，业务码映射回 pkg/errors
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInvalidArgument, err, "encode request")
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+apiPrefix+path, body)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidArgument, err, "build request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if tok := c.bearer(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	res, err := c.hc.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeRemoteUnavailable, err, method+" "+path)
	}
	defer res.Body.Close()
	c.log.Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", res.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if res.StatusCode != http.StatusOK {
		return apperrors.New(apperrors.CodeForStatus(res.StatusCode), fmt.Sprintf("%s %s: http %d", method, path, res.StatusCode))
	}
	var env resp.Envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return apperrors.Wrap(apperrors.CodeRemoteUnavailable, err, "decode envelope")
	}
	if env.Code != resp.CodeOK {
		return apperrors.New(codeForEnvelope(env.Code), env.Msg)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return apperrors.Wrap(apperrors.CodeRemoteUnavailable, err, "decode data")
	}
	return nil
}

func codeForEnvelope(code int) apperrors.Code {
	switch code {
	case resp.CodeTooMany, resp.CodeTimeout, resp.CodeServerError:
		return apperrors.CodeRemoteUnavailable
	}
	return apperrors.CodeForStatus(code)
}
