package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_Composed(t *testing.T) {
	var got ComposedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, composedPath, r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{"html": "```html\n<section>ok</section>\n```", "code": "<Ok/>"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", "k", 5*time.Second)
	resp, err := c.Composed(context.Background(), ComposedRequest{SectionID: "a", PreviousSectionsHTML: "<h1>prev</h1>", TotalSections: 3})
	require.NoError(t, err)
	assert.Equal(t, "<section>ok</section>", resp.HTML)
	assert.Equal(t, "<Ok/>", resp.Code)
	assert.Equal(t, "<h1>prev</h1>", got.PreviousSectionsHTML)
	assert.Equal(t, 3, got.TotalSections)
}

func TestHTTPClient_GenericCodeDefaultsToHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, genericPath, r.URL.Path)
		_, _ = w.Write([]byte(`{"html":"<footer>f</footer>"}`))
	}))
	defer srv.Close()

	resp, err := NewHTTPClient(srv.URL, "", time.Second).Generic(context.Background(), GenericRequest{SectionID: "f"})
	require.NoError(t, err)
	assert.Equal(t, resp.HTML, resp.Code)
}

func TestHTTPClient_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{"rate limited", http.StatusTooManyRequests, "", func(t *testing.T, err error) {
			assert.True(t, IsRateLimited(err))
		}},
		{"validation", http.StatusUnprocessableEntity, `{"error":"elements missing"}`, func(t *testing.T, err error) {
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, "elements missing", ve.Message)
		}},
		{"server", http.StatusBadGateway, "upstream down", func(t *testing.T, err error) {
			var he *HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, http.StatusBadGateway, he.StatusCode)
			assert.Equal(t, "upstream down", he.Body)
		}},
		{"empty html", http.StatusOK, `{"html":"  "}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrEmptyOutput)
		}},
		{"error in body", http.StatusOK, `{"error":"model refused"}`, func(t *testing.T, err error) {
			assert.EqualError(t, err, "model refused")
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewHTTPClient(srv.URL, "", time.Second).Generic(context.Background(), GenericRequest{})
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestHTTPClient_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewHTTPClient(srv.URL, "", 0).Composed(ctx, ComposedRequest{})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestHTTPClient_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	c := NewHTTPClient(srv.URL, "", time.Second)
	assert.NoError(t, c.Ping(context.Background()))

	srv.Close()
	assert.Error(t, c.Ping(context.Background()))
}

func TestHTTPClient_MissingBaseURL(t *testing.T) {
	_, err := NewHTTPClient("", "", 0).Generic(context.Background(), GenericRequest{})
	assert.Error(t, err)
}
