// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litharvest/pkg/types"
)

func newClient(t *testing.T, tmpl string, timeout time.Duration) *Client {
	t.Helper()
	c, err := New(types.HarvestConfig{
		HTTPConfig:  types.HTTPConfig{Timeout: timeout, UserAgent: "test-agent"},
		URLTemplate: tmpl,
	}, nil)
	require.NoError(t, err)
	return c
}

func TestTemplate(t *testing.T) {
	tests := []struct {
		src     types.FetchSource
		want    string
		wantErr bool
	}{
		{types.SourceDOI, doiBase + "{id}", false},
		{"", doiBase + "{id}", false},
		{types.SourceCrossRef, crossrefAPIBase + "{id}", false},
		{types.SourceOpenAlex, openAlexAPIBase + "{id}", false},
		{types.SourceSemanticScholar, semanticScholarBase + "{id}?fields=title,abstract", false},
		{"scholar", "", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.src), func(t *testing.T) {
			got, err := Template(tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_RejectsTemplateWithoutPlaceholder(t *testing.T) {
	_, err := New(types.HarvestConfig{URLTemplate: "https://example.org/works"}, nil)
	assert.Error(t, err)
}

func TestURL(t *testing.T) {
	c := newClient(t, "https://api.example.org/works/{id}?mailto=x", time.Second)
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain doi", "10.1145/1234567.1234568", "https://api.example.org/works/10.1145/1234567.1234568?mailto=x"},
		{"resolver prefix stripped", "https://doi.org/10.1038/nature12373", "https://api.example.org/works/10.1038/nature12373?mailto=x"},
		{"special characters escaped", "10.1002/(SICI)1097-4571#x", "https://api.example.org/works/10.1002/%28SICI%291097-4571%23x?mailto=x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.URL(tt.in))
		})
	}
}

func TestFetch_SuccessFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/resolve/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/landing", http.StatusFound)
	})
	mux.HandleFunc("/landing", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><div id="abstracts">Text</div></html>`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := newClient(t, ts.URL+"/resolve/{id}", time.Second)
	res := c.Fetch(context.Background(), "10.1/abc")

	require.True(t, res.OK(), "reason: %s", res.Reason())
	assert.Equal(t, types.FetchSuccess, res.Kind)
	assert.Contains(t, string(res.Body), "abstracts")
	assert.Equal(t, "text/html; charset=utf-8", res.ContentType)
	assert.Equal(t, ts.URL+"/landing", res.URL)
}

func TestFetch_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}))
	defer ts.Close()

	res := newClient(t, ts.URL+"/{id}", time.Second).Fetch(context.Background(), "10.1/missing")
	assert.Equal(t, types.FetchHTTPError, res.Kind)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "HTTP 404", res.Reason())
}

func TestFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	res := newClient(t, ts.URL+"/{id}", 50*time.Millisecond).Fetch(context.Background(), "10.1/slow")
	assert.Equal(t, types.FetchTimeout, res.Kind)
	assert.Error(t, res.Err)
}

func TestFetch_NetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	addr := ts.URL
	ts.Close()

	res := newClient(t, addr+"/{id}", time.Second).Fetch(context.Background(), "10.1/gone")
	assert.Equal(t, types.FetchNetworkError, res.Kind)
	assert.Error(t, res.Err)
}

func TestFetch_EmptyIdentifier(t *testing.T) {
	res := newClient(t, "http://127.0.0.1:1/{id}", time.Second).Fetch(context.Background(), "   ")
	assert.Equal(t, types.FetchNetworkError, res.Kind)
}

func TestFetch_ConcurrentUse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, r.URL.Path)
	}))
	defer ts.Close()

	c := newClient(t, ts.URL+"/{id}", time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("10.1/%d", i)
			res := c.Fetch(context.Background(), id)
			assert.True(t, res.OK())
			assert.Equal(t, "/"+id, string(res.Body))
		}(i)
	}
	wg.Wait()
}

func TestNormalizeIdentifier(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"10.1145/1234567", "10.1145/1234567"},
		{"  10.1145/1234567  ", "10.1145/1234567"},
		{"https://doi.org/10.1038/ABC", "10.1038/ABC"},
		{"HTTPS://DX.DOI.ORG/10.1038/abc", "10.1038/abc"},
		{"doi:10.1038/abc", "10.1038/abc"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeIdentifier(tt.in))
		})
	}
}

func TestIsDOI(t *testing.T) {
	assert.True(t, IsDOI("10.1038/s41586-024-07487-w"))
	assert.True(t, IsDOI("doi:10.1145/1234567.1234568"))
	assert.False(t, IsDOI("2301.07041"))
	assert.False(t, IsDOI("not a doi"))
}

func TestFetch_SendsConfiguredHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"abstract":"x"}`)
	}))
	defer srv.Close()

	c, err := New(types.HarvestConfig{
		HTTPConfig: types.HTTPConfig{
			UserAgent: "test-agent",
			Headers:   map[string]string{"x-api-key": "s2-key"},
		},
		Source:      types.SourceSemanticScholar,
		URLTemplate: srv.URL + "/{id}",
	}, nil)
	require.NoError(t, err)

	res := c.Fetch(context.Background(), "10.1/abc")
	require.True(t, res.OK())
	assert.Equal(t, "s2-key", got.Get("X-Api-Key"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Equal(t, "test-agent", got.Get("User-Agent"))
}
