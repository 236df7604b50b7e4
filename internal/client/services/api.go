package services

import (
	"context"
	"io"
	"net/url"

	"github.com/dmitrijs2005/ragdesk/internal/client/api"
)

// API is the request facade used by the services; *api.Client implements it.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any, opts ...api.RequestOption) error
	Post(ctx context.Context, path string, in, out any, opts ...api.RequestOption) error
	Put(ctx context.Context, path string, in, out any, opts ...api.RequestOption) error
	Delete(ctx context.Context, path string, out any, opts ...api.RequestOption) error
	Upload(ctx context.Context, path string, form *api.Form, onProgress func(percent int), out any, opts ...api.RequestOption) error
	Stream(ctx context.Context, method, path string, in any, opts ...api.RequestOption) (io.ReadCloser, error)
}
