package yieldtable

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	defaultHTTPTimeout    = 5 * time.Second
	defaultMaxRetries     = 3
	defaultInitialBackoff = 200 * time.Millisecond
)

// HTTPSource fetches a JSON table from URL, retrying transient failures with exponential backoff.
// The caller's context bounds the whole fetch including retries.
type HTTPSource struct {
	URL             string
	Client          *http.Client
	MaxRetries      uint64
	InitialInterval time.Duration
	logger          *zap.Logger
}

// NewHTTPSource initializes an HTTP source with a per-request timeout.
func NewHTTPSource(url string, timeout time.Duration, logger *zap.Logger) *HTTPSource {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPSource{
		URL:             url,
		Client:          &http.Client{Timeout: timeout},
		MaxRetries:      defaultMaxRetries,
		InitialInterval: defaultInitialBackoff,
		logger:          logger,
	}
}

func (s *HTTPSource) Load(ctx context.Context) (*Table, error) {
	var table *Table
	operation := func() error {
		t, err := s.fetch(ctx)
		if err != nil {
			return err
		}
		table = t
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.InitialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, s.MaxRetries), ctx)

	notify := func(err error, wait time.Duration) {
		s.logger.Debug("yield table fetch failed, retrying",
			zap.String("url", s.URL),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}
	return table, nil
}

func (s *HTTPSource) fetch(ctx context.Context) (*Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	t, err := Decode(resp.Body)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	return t, nil
}
