package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/prodiplan/essaygrader/internal/report"
)

// ResultProvider fetches analysis results from the backend.
type ResultProvider struct {
	client *Client
	token  func() string
}

// NewResultProvider creates a ResultProvider. token is read on every call.
func NewResultProvider(c *Client, token func() string) *ResultProvider {
	return &ResultProvider{client: c, token: token}
}

var _ report.Provider = (*ResultProvider)(nil)

func (p *ResultProvider) Result(ctx context.Context, attemptID string) (*report.Report, error) {
	var r report.Report
	path := PathResults + "/" + url.PathEscape(attemptID)
	if err := p.client.Do(ctx, http.MethodGet, path, p.token(), nil, &r); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			switch apiErr.Code {
			case CodeAnalyzing:
				return nil, fmt.Errorf("%w: %s", report.ErrAnalyzing, apiErr.Message)
			case CodeNotFound:
				return nil, fmt.Errorf("%w: %s", report.ErrNotFound, apiErr.Message)
			}
		}
		return nil, mapAuthError(err)
	}
	return &r, nil
}
