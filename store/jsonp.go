package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"charlie-pos/metrics"
	"charlie-pos/notify"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const connectionErrorMessage = "Error de conexión con el servidor"

// maxReplyBytes bounds how much of a reply body is read.
const maxReplyBytes = 8 << 20

// JSONPClient calls a spreadsheet web-app script that answers `callback({...})`.
type JSONPClient struct {
	scriptURL string
	http      *http.Client
	timeout   time.Duration
	notifier  notify.Notifier
	metrics   *metrics.Registry
	log       *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	pending map[string]struct{}
}

type JSONPOption func(*JSONPClient)

func WithHTTPClient(c *http.Client) JSONPOption { return func(j *JSONPClient) { j.http = c } }

func WithTimeout(d time.Duration) JSONPOption { return func(j *JSONPClient) { j.timeout = d } }

func WithNotifier(n notify.Notifier) JSONPOption { return func(j *JSONPClient) { j.notifier = n } }

func WithMetrics(m *metrics.Registry) JSONPOption { return func(j *JSONPClient) { j.metrics = m } }

func WithLogger(l *zap.Logger) JSONPOption { return func(j *JSONPClient) { j.log = l } }

func NewJSONPClient(scriptURL string, opts ...JSONPOption) *JSONPClient {
	c := &JSONPClient{
		scriptURL: scriptURL,
		http:      http.DefaultClient,
		timeout:   30 * time.Second,
		notifier:  notify.Discard,
		log:       zap.NewNop(),
		now:       time.Now,
		pending:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Pending returns how many callbacks are currently registered.
func (c *JSONPClient) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *JSONPClient) register() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		name := callbackName(c.now())
		if _, taken := c.pending[name]; !taken {
			c.pending[name] = struct{}{}
			return name
		}
	}
}

func (c *JSONPClient) unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, name)
}

// callbackName builds callback_<unix-ms>_<9 chars>.
func callbackName(now time.Time) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("callback_%d_%s", now.UnixMilli(), id[:9])
}

func (c *JSONPClient) Call(ctx context.Context, action string, payload any) (resp *Response, err error) {
	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeOK
		switch {
		case IsFailure(err):
			outcome = metrics.OutcomeFailure
		case err != nil:
			outcome = metrics.OutcomeError
		}
		c.metrics.ObserveStoreCall(action, outcome, time.Since(start))
	}()

	data, err := encodePayload(payload)
	if err != nil {
		return nil, err
	}

	callback := c.register()
	defer c.unregister(callback)

	params := url.Values{}
	params.Set("action", action)
	params.Set("callback", callback)
	if data != "" {
		params.Set("data", data)
	}
	target := c.scriptURL
	if strings.Contains(target, "?") {
		target += "&" + params.Encode()
	} else {
		target += "?" + params.Encode()
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	body, err := c.fetch(req)
	if err != nil {
		c.log.Warn("store call failed", zap.String("action", action), zap.Error(err))
		c.notifier.Notify(notify.LevelError, connectionErrorMessage)
		return nil, fmt.Errorf("%w: %s: %v", ErrConnection, action, err)
	}

	raw, err := unwrapJSONP(callback, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, action, err)
	}
	resp, err = parseResponse(action, raw)
	if err != nil {
		c.log.Info("store rejected action", zap.String("action", action), zap.Error(err))
		return nil, err
	}
	c.log.Debug("store call", zap.String("action", action), zap.Duration("took", time.Since(start)))
	return resp, nil
}

func (c *JSONPClient) fetch(req *http.Request) ([]byte, error) {
	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", res.Status)
	}
	return io.ReadAll(io.LimitReader(res.Body, maxReplyBytes))
}

// unwrapJSONP strips `name(` ... `)` (with an optional `/**/` prefix and trailing `;`) from body.
func unwrapJSONP(name string, body []byte) ([]byte, error) {
	b := bytes.TrimSpace(body)
	b = bytes.TrimPrefix(b, []byte("/**/"))
	b = bytes.TrimSpace(b)
	b = bytes.TrimSuffix(b, []byte(";"))
	b = bytes.TrimSpace(b)

	open := bytes.IndexByte(b, '(')
	if open < 0 || b[len(b)-1] != ')' {
		return nil, fmt.Errorf("reply is not a callback invocation")
	}
	if got := string(bytes.TrimSpace(b[:open])); got != name {
		return nil, fmt.Errorf("reply addressed to %q, want %q", got, name)
	}
	return bytes.TrimSpace(b[open+1 : len(b)-1]), nil
}
