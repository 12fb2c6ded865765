package httpclient

import "context"

// Response is the part of an HTTP response callers inspect: status and raw body.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client sends HTTP requests. A non-2xx response is not an error; only
// failures that prevent a response from arriving are.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}
