package domain

import (
	"context"
	"net/http"
)

// HTTPAdapter defines the interface for HTTP operations against a BMC.
// Callers own the returned response body.
type HTTPAdapter interface {
	Post(ctx context.Context, url string, payload any) (*http.Response, error)
	GetWithAuth(ctx context.Context, url, token string) (*http.Response, error)
	PostWithAuth(
		ctx context.Context,
		url, token string,
		payload any,
	) (*http.Response, error)
	DeleteWithAuth(ctx context.Context, url, token string) (*http.Response, error)
}
