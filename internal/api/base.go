package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	clienterrors "github.com/designcomb/influenter/client/internal/errors"
)

// HTTPClient interface for dependency injection
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// apiPrefix is prepended to every resource path.
const apiPrefix = "/api/v1"

// maxErrorBody caps how much of an error response is kept for diagnostics.
const maxErrorBody = 64 << 10

// endpoint joins baseURL, the API prefix and the escaped path segments.
func endpoint(baseURL string, segments ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(baseURL, "/"))
	b.WriteString(apiPrefix)
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// withQuery appends the non-empty filters as a query string.
func withQuery(rawURL string, params map[string]string) string {
	q := url.Values{}
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	if len(q) == 0 {
		return rawURL
	}
	return rawURL + "?" + q.Encode()
}

// doJSON performs one request. in is JSON-encoded when non-nil; out is
// decoded from a 2xx body when non-nil. Non-2xx responses and transport
// failures come back as *errors.ClassifiedError.
func doJSON(ctx context.Context, httpClient HTTPClient, method, rawURL, op string, in, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return err
	}
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	// Note: Authorization and X-Request-ID headers are added by the transport layer

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return clienterrors.NewNetworkError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return clienterrors.NewHTTPError(resp.StatusCode, string(raw), op)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return clienterrors.NewDecodeError(op, err)
	}
	return nil
}
