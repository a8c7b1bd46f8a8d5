package ai

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "strings"
    "time"

    "github.com/local/pagecomposer/internal/markup"
)

const (
    composedPath = "/v1/sections/composed"
    genericPath  = "/v1/sections/generate"
)

// HTTPClient talks JSON to the generation service.
type HTTPClient struct {
    http    *http.Client
    baseURL string
    apiKey  string
}

// NewHTTPClient builds a client for baseURL. A zero timeout leaves deadlines to
// the caller's context.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
    return &HTTPClient{
        http:    &http.Client{Timeout: timeout},
        baseURL: strings.TrimRight(baseURL, "/"),
        apiKey:  apiKey,
    }
}

func (c *HTTPClient) Name() string { return "generation-service" }

func (c *HTTPClient) Composed(ctx context.Context, req ComposedRequest) (Response, error) {
    return c.post(ctx, composedPath, req)
}

func (c *HTTPClient) Generic(ctx context.Context, req GenericRequest) (Response, error) {
    return c.post(ctx, genericPath, req)
}

// Ping checks the service answers at all. Any HTTP status counts as reachable.
func (c *HTTPClient) Ping(ctx context.Context) error {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
    if err != nil { return err }
    resp, err := c.http.Do(req)
    if err != nil { return err }
    resp.Body.Close()
    return nil
}

type serviceResp struct {
    HTML  string `json:"html"`
    Code  string `json:"code"`
    Error string `json:"error,omitempty"`
}

func (c *HTTPClient) post(ctx context.Context, path string, payload any) (Response, error) {
    if c.baseURL == "" {
        return Response{}, errors.New("missing GENERATION_URL")
    }
    body, err := json.Marshal(payload)
    if err != nil {
        return Response{}, &ValidationError{Message: err.Error()}
    }
    httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
    if err != nil {
        return Response{}, err
    }
    httpReq.Header.Set("Content-Type", "application/json")
    if c.apiKey != "" {
        httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
    }

    resp, err := c.http.Do(httpReq)
    if err != nil {
        return Response{}, err
    }
    defer resp.Body.Close()

    if resp.StatusCode == http.StatusTooManyRequests {
        return Response{}, ErrRateLimited
    }
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
        msg := strings.TrimSpace(string(b))
        var sr serviceResp
        if json.Unmarshal(b, &sr) == nil && sr.Error != "" {
            msg = sr.Error
        }
        if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity {
            return Response{}, &ValidationError{Message: msg}
        }
        return Response{}, &HTTPError{StatusCode: resp.StatusCode, Body: msg, Service: c.Name()}
    }

    var r serviceResp
    if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
        return Response{}, fmt.Errorf("decode response: %w", err)
    }
    if r.Error != "" {
        return Response{}, errors.New(r.Error)
    }
    html, err := markup.Normalize(r.HTML)
    if err != nil {
        if errors.Is(err, markup.ErrEmpty) {
            return Response{}, ErrEmptyOutput
        }
        return Response{}, err
    }
    code := strings.TrimSpace(r.Code)
    if code == "" {
        code = html
    }
    return Response{HTML: html, Code: code}, nil
}
