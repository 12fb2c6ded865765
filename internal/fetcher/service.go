package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/codigomaromba/item-fetcher/pkg/httpclient"
)

const (
	BaseURL      = "https://codigomaromba.com/"
	EndpointPath = "endpoint-path"

	unexpectedResponseMsg = "the call returned an unexpected response"
	transportFailureMsg   = "error performing the call"
	decodeFailureMsg      = "error decoding the response body"
)

// Logger is the logging surface the fetch service relies on.
type Logger interface {
	Warn(msg string)
	Error(msg string, err error)
}

// Service fetches the item list from the external endpoint.
type Service struct {
	client httpclient.Client
	log    Logger
}

// NewService wires a Service with the transport and logger it shares with the caller.
func NewService(client httpclient.Client, log Logger) (*Service, error) {
	if client == nil {
		return nil, errors.New("http client must not be nil")
	}
	if log == nil {
		return nil, errors.New("logger must not be nil")
	}
	return &Service{client: client, log: log}, nil
}

// Endpoint returns the absolute URL FetchItems calls.
func Endpoint() string { return BaseURL + EndpointPath }

// FetchItems performs one GET against the endpoint.
//
// A non-2xx status is recovered: a warning is logged and an empty slice is
// returned. A transport failure is logged and returned as an *Error of kind
// KindTransport, which matches ErrInvalidArgument. A 2xx body that is not a
// JSON array of strings is logged and returned as an *Error of kind KindParse.
func (s *Service) FetchItems(ctx context.Context) ([]string, error) {
	if s == nil || s.client == nil {
		return nil, errors.New("fetch service is not initialized")
	}

	resp, err := s.client.Get(ctx, Endpoint(), nil)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err == nil && resp == nil {
		err = errEmptyResponse
	}
	if err != nil {
		s.log.Error(transportFailureMsg, err)
		return nil, &Error{Kind: KindTransport, Err: err}
	}

	if !isSuccess(resp.StatusCode()) {
		s.log.Warn(unexpectedResponseMsg)
		return []string{}, nil
	}

	items, err := decodeItems(resp.Body())
	if err != nil {
		s.log.Error(decodeFailureMsg, err)
		return nil, &Error{Kind: KindParse, Err: err}
	}
	return items, nil
}

var errEmptyResponse = errors.New("transport returned no response")

func isSuccess(code int) bool { return code >= 200 && code < 300 }

func decodeItems(body []byte) ([]string, error) {
	// Pointers distinguish a null element from "", which []string would hide.
	var raw []*string
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	// null unmarshals into a nil slice without error.
	if raw == nil {
		return nil, fmt.Errorf("expected a JSON array of strings, got %s", snippet(body))
	}
	items := make([]string, len(raw))
	for i, v := range raw {
		if v == nil {
			return nil, fmt.Errorf("expected a JSON array of strings, element %d is null", i)
		}
		items[i] = *v
	}
	return items, nil
}

func snippet(body []byte) string {
	const maxLen = 64
	if len(body) == 0 {
		return "<empty>"
	}
	if len(body) > maxLen {
		return string(body[:maxLen]) + "..."
	}
	return string(body)
}
