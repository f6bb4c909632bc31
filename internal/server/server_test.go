package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/pgnode2graph/pkg/buildinfo"
	"github.com/matzehuels/pgnode2graph/pkg/errors"
	"github.com/matzehuels/pgnode2graph/pkg/graph"
	"github.com/matzehuels/pgnode2graph/pkg/httputil"
	"github.com/matzehuels/pgnode2graph/pkg/observability"
	"github.com/matzehuels/pgnode2graph/pkg/pipeline"
)

const sampleDump = "{QUERY :commandType 1 :targetList ({TARGETENTRY :expr <> :resno 1})}\n"

type fakeRenderer struct{ err error }

func (f *fakeRenderer) Name() string { return "fake" }

func (f *fakeRenderer) Render(_ context.Context, dot []byte, format string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]byte("IMG:"+format+":"), dot...), nil
}

func newTestServer(t *testing.T, r *fakeRenderer) (*httptest.Server, *observability.Counters) {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	counters := observability.NewCounters()
	observability.SetPipelineHooks(counters)
	observability.SetHTTPHooks(counters)
	t.Cleanup(observability.Reset)

	srv := New(pipeline.NewRunner(r, nil, logger), counters, logger, Config{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, counters
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "text/plain", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func decodeError(t *testing.T, resp *http.Response) httputil.ErrorBody {
	t.Helper()
	var body httputil.ErrorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t, &fakeRenderer{})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, err = uuid.Parse(resp.Header.Get(RequestIDHeader))
	assert.NoError(t, err, "responses carry a uuid request id")

	var body health
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, buildinfo.Version, body.Build.Version)
}

func TestRequestIDReused(t *testing.T) {
	ts, _ := newTestServer(t, &fakeRenderer{})
	id := uuid.NewString()

	for _, tt := range []struct {
		sent  string
		reuse bool
	}{
		{id, true},
		{"not-a-uuid", false},
	} {
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
		req.Header.Set(RequestIDHeader, tt.sent)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		got := resp.Header.Get(RequestIDHeader)
		assert.Equal(t, tt.reuse, got == tt.sent, "sent %q, got %q", tt.sent, got)
	}
}

func TestDot(t *testing.T) {
	ts, _ := newTestServer(t, &fakeRenderer{})

	resp := post(t, ts.URL+"/v1/dot", sampleDump)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, dotContentType, resp.Header.Get("Content-Type"))
	body := readAll(t, resp)
	assert.True(t, strings.HasPrefix(body, "digraph PGNodeGraph {\n"))
	assert.Contains(t, body, "node_0:f2 -> node_3:f0;")

	resp = post(t, ts.URL+"/v1/dot?color=true", sampleDump)
	body = readAll(t, resp)
	assert.Contains(t, body, "node_0:f2 -> node_3:f0 [color=blue];")
	assert.Contains(t, body, `bgcolor="skyblue"`)

	assert.Contains(t, body, ">expr --<")
	resp = post(t, ts.URL+"/v1/dot?skip_empty", sampleDump)
	assert.NotContains(t, readAll(t, resp), "expr --")
}

func TestDotErrors(t *testing.T) {
	ts, _ := newTestServer(t, &fakeRenderer{})

	tests := []struct {
		name   string
		query  string
		body   string
		status int
		code   errors.Code
	}{
		{"unbalanced", "", "{QUERY :commandType 1", http.StatusUnprocessableEntity, errors.ErrCodeUnbalancedInput},
		{"no tree", "", "hello", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"empty body", "", "", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad flag", "?color=maybe", sampleDump, http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+"/v1/dot"+tt.query, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, decodeError(t, resp).Code)
		})
	}

	resp := post(t, ts.URL+"/v1/dot", "{QUERY :commandType 1")
	body := decodeError(t, resp)
	assert.Positive(t, body.Line, "parse errors report their position")
}

func TestRender(t *testing.T) {
	ts, _ := newTestServer(t, &fakeRenderer{})

	resp := post(t, ts.URL+"/v1/render?format=svg", sampleDump)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(readAll(t, resp), "IMG:svg:digraph"))

	resp = post(t, ts.URL+"/v1/render", sampleDump)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"), "png is the default format")

	resp = post(t, ts.URL+"/v1/render?format=png%3Brm", sampleDump)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, errors.ErrCodeInvalidFormat, decodeError(t, resp).Code)
}

func TestRenderFailure(t *testing.T) {
	ts, _ := newTestServer(t, &fakeRenderer{err: errors.New(errors.ErrCodeRenderFailed, "dot exited with status 1")})

	resp := post(t, ts.URL+"/v1/render?format=svg", sampleDump)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, errors.ErrCodeRenderFailed, decodeError(t, resp).Code)
}

func TestTree(t *testing.T) {
	ts, _ := newTestServer(t, &fakeRenderer{})

	resp := post(t, ts.URL+"/v1/tree", sampleDump)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var g graph.Graph
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&g))
	assert.Len(t, g.Nodes, 6)
	assert.Equal(t, "QUERY", g.Nodes[g.Root].Label)
}

func TestStats(t *testing.T) {
	ts, _ := newTestServer(t, &fakeRenderer{})

	post(t, ts.URL+"/v1/dot", sampleDump)
	post(t, ts.URL+"/v1/dot", "{QUERY")

	resp, err := http.Get(ts.URL + "/v1/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var stats observability.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, int64(2), stats.Parses)
	assert.Equal(t, int64(1), stats.ParseErrors)
	assert.Equal(t, int64(3), stats.Requests)
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t, &fakeRenderer{})

	resp, err := http.Get(ts.URL + "/v1/dot")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestListenAndServeShutdown(t *testing.T) {
	srv := New(pipeline.NewRunner(&fakeRenderer{}, nil, nil), nil, log.NewWithOptions(io.Discard, log.Options{}), Config{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	assert.NoError(t, <-done)
}
