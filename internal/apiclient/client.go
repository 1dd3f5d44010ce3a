// Package apiclient реализует клиент бэкенда NEXUS: сборку запроса, авторизацию
// через TokenSource, таймаут на вызов и приведение ответа к единому конверту.
package apiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"nexusglobal/pkg/logger"
)

// DefaultTimeout - таймаут вызова по умолчанию.
const DefaultTimeout = 30 * time.Second

// Константы для логирования.
const (
	LogCallCompleted    = "api call completed"
	LogCallFailed       = "api call failed"
	LogUnauthorized     = "api call unauthorized, notifying token source"
	LogUnauthorizedHook = "token source failed to handle unauthorized response"

	errMsgMissingBaseURL = "base URL is not configured"
	errMsgInvalidBody    = "invalid request body"
	errMsgBuildRequest   = "failed to build request"
	errMsgTokenSource    = "failed to resolve access token"
	errMsgReadBody       = "failed to read response body"
)

// ExecutionContext определяет, откуда выполняются вызовы.
type ExecutionContext string

// Контексты выполнения.
const (
	Server  ExecutionContext = "server"
	Browser ExecutionContext = "browser"
)

// TokenSource выдает токен доступа и реагирует на ответ 401.
// Реализация выбирается один раз при создании клиента.
type TokenSource interface {
	// Token возвращает действующий токен доступа. Ошибка означает, что
	// вызов нельзя выполнять от имени пользователя.
	Token(ctx context.Context) (string, error)
	// Unauthorized вызывается, когда бэкенд ответил 401 на авторизованный вызов.
	Unauthorized(ctx context.Context) error
}

// Config содержит параметры клиента.
type Config struct {
	Context ExecutionContext
	BaseURL string
	Timeout time.Duration
}

// Client - точка входа для всех вызовов бэкенда.
type Client struct {
	execCtx ExecutionContext
	baseURL string
	timeout time.Duration
	http    *http.Client
	tokens  TokenSource
	headers http.Header
}

// Option настраивает клиент.
type Option func(*Client)

// WithHTTPClient задает HTTP клиент.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTokenSource задает источник токенов.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithHeader добавляет постоянный заголовок ко всем вызовам.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// New создает клиент. Пустой базовый адрес - ошибка конфигурации.
func New(cfg Config, opts ...Option) (*Client, error) {
	execCtx := cfg.Context
	if execCtx == "" {
		execCtx = Server
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, &Error{
			Kind:    KindConfiguration,
			Message: Messages{fmt.Sprintf("%s for %s context", errMsgMissingBaseURL, execCtx)},
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		execCtx: execCtx,
		baseURL: baseURL,
		timeout: timeout,
		http:    &http.Client{},
		headers: http.Header{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// WithTokens возвращает копию клиента с другим источником токенов.
// Используется для клиента в рамках одного входящего запроса.
func (c *Client) WithTokens(ts TokenSource) *Client {
	clone := *c
	clone.headers = c.headers.Clone()
	clone.tokens = ts
	return &clone
}

// Context возвращает контекст выполнения клиента.
func (c *Client) Context() ExecutionContext {
	return c.execCtx
}

// BaseURL возвращает базовый адрес API.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do выполняет вызов и возвращает конверт успешного ответа.
func (c *Client) Do(ctx context.Context, req Request) (*Envelope, error) {
	start := time.Now()
	log := logger.Log(ctx).With(
		zap.String("method", req.Method),
		zap.String("endpoint", req.Endpoint),
		zap.String("context", string(c.execCtx)),
	)

	env, err := c.do(ctx, req)
	if err != nil {
		if apiErr, ok := AsError(err); ok {
			apiErr.Method = req.Method
			apiErr.Endpoint = req.Endpoint
		}
		log.Debug(ctx, LogCallFailed,
			zap.Int("status", StatusOf(err)),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err))

		if IsKind(err, KindAuth) && StatusOf(err) == http.StatusUnauthorized && !req.SkipAuth && c.tokens != nil {
			log.Info(ctx, LogUnauthorized)
			if hookErr := c.tokens.Unauthorized(ctx); hookErr != nil {
				log.Warn(ctx, LogUnauthorizedHook, zap.Error(hookErr))
			}
		}
		return nil, err
	}

	log.Debug(ctx, LogCallCompleted,
		zap.Int("status", env.Status),
		zap.Duration("latency", time.Since(start)))
	return env, nil
}

func (c *Client) do(ctx context.Context, req Request) (*Envelope, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := c.newRequest(callCtx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, callCtx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(ctx, callCtx, fmt.Errorf("%s: %w", errMsgReadBody, err))
	}

	return normalize(resp.StatusCode, resp.Header, body)
}

// newRequest собирает HTTP запрос: адрес, заголовки, авторизацию и тело.
func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, &Error{Kind: KindConfiguration, Message: Messages{errMsgInvalidBody}, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, buildURL(c.baseURL, req.Endpoint, req.Params), body)
	if err != nil {
		return nil, &Error{Kind: KindConfiguration, Message: Messages{errMsgBuildRequest}, Err: err}
	}

	for key, values := range c.headers {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	for key, values := range req.Header {
		httpReq.Header.Del(key)
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	httpReq.Header.Set(headerAccept, ContentTypeJSON)
	if contentType != "" {
		httpReq.Header.Set(headerType, contentType)
	}
	if id, ok := logger.GetRequestID(ctx); ok {
		httpReq.Header.Set(logger.RequestIDHeader, id)
	}

	if !req.SkipAuth && c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, &Error{Kind: KindAuth, Message: Messages{errMsgTokenSource}, Err: err}
		}
		if token != "" {
			httpReq.Header.Set(headerAuth, bearerPrefix+token)
		}
	}

	return httpReq, nil
}

// transportError различает таймаут вызова и прочие сетевые ошибки.
func transportError(parent, callCtx context.Context, err error) error {
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() && parent.Err() == nil {
		return &Error{Kind: KindTimeout, Err: err}
	}

	return &Error{Kind: KindNetwork, Err: err}
}

// Get выполняет авторизованный GET и разбирает data в out.
func (c *Client) Get(ctx context.Context, endpoint string, out any, opts ...CallOption) error {
	return c.call(ctx, http.MethodGet, endpoint, nil, out, false, opts)
}

// Post выполняет авторизованный POST.
func (c *Client) Post(ctx context.Context, endpoint string, body, out any, opts ...CallOption) error {
	return c.call(ctx, http.MethodPost, endpoint, body, out, false, opts)
}

// Put выполняет авторизованный PUT.
func (c *Client) Put(ctx context.Context, endpoint string, body, out any, opts ...CallOption) error {
	return c.call(ctx, http.MethodPut, endpoint, body, out, false, opts)
}

// Patch выполняет авторизованный PATCH.
func (c *Client) Patch(ctx context.Context, endpoint string, body, out any, opts ...CallOption) error {
	return c.call(ctx, http.MethodPatch, endpoint, body, out, false, opts)
}

// Delete выполняет авторизованный DELETE.
func (c *Client) Delete(ctx context.Context, endpoint string, out any, opts ...CallOption) error {
	return c.call(ctx, http.MethodDelete, endpoint, nil, out, false, opts)
}

// PublicGet выполняет GET без авторизации.
func (c *Client) PublicGet(ctx context.Context, endpoint string, out any, opts ...CallOption) error {
	return c.call(ctx, http.MethodGet, endpoint, nil, out, true, opts)
}

// PublicPost выполняет POST без авторизации.
func (c *Client) PublicPost(ctx context.Context, endpoint string, body, out any, opts ...CallOption) error {
	return c.call(ctx, http.MethodPost, endpoint, body, out, true, opts)
}

// PublicPut выполняет PUT без авторизации.
func (c *Client) PublicPut(ctx context.Context, endpoint string, body, out any, opts ...CallOption) error {
	return c.call(ctx, http.MethodPut, endpoint, body, out, true, opts)
}

// PublicPatch выполняет PATCH без авторизации.
func (c *Client) PublicPatch(ctx context.Context, endpoint string, body, out any, opts ...CallOption) error {
	return c.call(ctx, http.MethodPatch, endpoint, body, out, true, opts)
}

// PublicDelete выполняет DELETE без авторизации.
func (c *Client) PublicDelete(ctx context.Context, endpoint string, out any, opts ...CallOption) error {
	return c.call(ctx, http.MethodDelete, endpoint, nil, out, true, opts)
}

func (c *Client) call(ctx context.Context, method, endpoint string, body, out any, public bool, opts []CallOption) error {
	req := Request{Method: method, Endpoint: endpoint, Body: body, SkipAuth: public}
	for _, opt := range opts {
		if opt != nil {
			opt(&req)
		}
	}

	env, err := c.Do(ctx, req)
	if err != nil {
		return err
	}

	if err := env.Decode(out); err != nil {
		return &Error{
			Kind:     KindHTTP,
			Method:   method,
			Endpoint: endpoint,
			Status:   env.Status,
			Message:  Messages{"malformed response data"},
			Err:      err,
		}
	}
	return nil
}
