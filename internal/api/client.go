// Package api implements the HTTP client adapter: the single point through
// which every resource request passes. It attaches the session's bearer
// credential, encodes JSON and multipart bodies, and normalizes non-2xx
// responses into the structured failures defined in apierr.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sevenseas/backoffice/internal/apierr"
)

// TokenSource supplies the bearer credential for outgoing requests.
// An empty token with a nil error means the caller is unauthenticated and
// the request goes out without an Authorization header.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// RefreshFunc is invoked once when a request comes back 401. It returns a
// fresh access token to retry with, or an error if the session could not
// be refreshed (at which point the 401 is surfaced to the caller).
type RefreshFunc func(ctx context.Context) (string, error)

// Client is the adapter. All resource facades share one instance.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	refresh RefreshFunc
	log     *zap.Logger
}

// New constructs a Client for the API rooted at baseURL. tokens may be nil
// for a client that only hits public endpoints.
func New(baseURL string, tokens TokenSource, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
		log:     log,
	}
}

// OnUnauthorized registers the single-flight refresh hook used to retry a
// request exactly once after a 401.
func (c *Client) OnUnauthorized(fn RefreshFunc) {
	c.refresh = fn
}

// Get issues a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, nil, body, out)
}

// PublicPost issues a POST without attaching a credential and without the
// 401 retry. The session store uses it for the login and refresh
// endpoints, which must not depend on the very credential being obtained.
func (c *Client) PublicPost(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}
	status, respBody, err := c.roundTrip(ctx, http.MethodPost, path, nil, payload, "application/json", "")
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return decodeError(status, respBody)
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, nil, body, out)
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete issues a DELETE request. A 204 body is ignored.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, nil)
}

// FileField is a binary attachment for a multipart request.
type FileField struct {
	Field    string
	Filename string
	Content  []byte
}

// PostMultipart issues a POST encoded as multipart/form-data. fields are
// written as plain form values; file, when non-nil, as a file part. The
// payment-creation form uses this for receipt uploads.
func (c *Client) PostMultipart(ctx context.Context, path string, fields map[string]string, file *FileField, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("encode field %s: %w", k, err)
		}
	}
	if file != nil {
		part, err := w.CreateFormFile(file.Field, file.Filename)
		if err != nil {
			return fmt.Errorf("encode file part: %w", err)
		}
		if _, err := part.Write(file.Content); err != nil {
			return fmt.Errorf("write file part: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, nil, buf.Bytes(), w.FormDataContentType(), out)
}

// Download issues an authenticated GET and returns the raw response body,
// used for the binary statement/receipt endpoints. The content is opaque
// to this layer.
func (c *Client) Download(ctx context.Context, path string) ([]byte, error) {
	var raw []byte
	err := c.do(ctx, http.MethodGet, path, nil, nil, "", &rawSink{&raw})
	return raw, err
}

// rawSink marks the output as wanting raw bytes instead of JSON decoding.
type rawSink struct{ dst *[]byte }

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	contentType := ""
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		payload = b
		contentType = "application/json"
	}
	return c.do(ctx, method, path, query, payload, contentType, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte, contentType string, out any) error {
	token := ""
	if c.tokens != nil {
		t, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("resolve credential: %w", err)
		}
		token = t
	}

	status, body, err := c.roundTrip(ctx, method, path, query, payload, contentType, token)
	if err != nil {
		return err
	}

	// One refresh-and-retry on 401, when a refresh hook is wired and the
	// request actually carried a credential.
	if status == http.StatusUnauthorized && c.refresh != nil && token != "" {
		fresh, refreshErr := c.refresh(ctx)
		if refreshErr != nil {
			return decodeError(status, body)
		}
		status, body, err = c.roundTrip(ctx, method, path, query, payload, contentType, fresh)
		if err != nil {
			return err
		}
	}

	if status < 200 || status >= 300 {
		return decodeError(status, body)
	}

	switch dst := out.(type) {
	case nil:
		return nil
	case *rawSink:
		*dst.dst = body
		return nil
	default:
		if len(body) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, payload []byte, contentType, token string) (int, []byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}

	c.log.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)
	return resp.StatusCode, body, nil
}

// decodeError turns a non-2xx status and body into a structured failure.
// A 400 whose body is a field→messages map becomes a ValidationError; a
// body with a "detail" string becomes a StatusError carrying it.
func decodeError(status int, body []byte) error {
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(body, &generic); err != nil {
		return &apierr.StatusError{StatusCode: status}
	}

	if raw, ok := generic["detail"]; ok {
		var detail string
		if json.Unmarshal(raw, &detail) == nil {
			return &apierr.StatusError{StatusCode: status, Detail: detail}
		}
	}

	if status == http.StatusBadRequest && len(generic) > 0 {
		fields := make(map[string][]string, len(generic))
		for field, raw := range generic {
			var msgs []string
			if json.Unmarshal(raw, &msgs) == nil {
				fields[field] = msgs
				continue
			}
			var single string
			if json.Unmarshal(raw, &single) == nil {
				fields[field] = []string{single}
			}
		}
		if len(fields) > 0 {
			return &apierr.ValidationError{StatusCode: status, Fields: fields}
		}
	}

	return &apierr.StatusError{StatusCode: status}
}
