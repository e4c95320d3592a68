// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package drive

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shawncrivello/label-me-labeled/internal/info"
)

const testToken = "test-token"

// testServer routes requests by "METHOD /path" and records what it received.
type testServer struct {
	t      *testing.T
	routes map[string]http.HandlerFunc

	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
}

func newTestServer(t *testing.T, routes map[string]http.HandlerFunc) (*testServer, *Service) {
	t.Helper()

	ts := &testServer{t: t, routes: routes}
	server := httptest.NewServer(http.HandlerFunc(ts.serve))
	t.Cleanup(server.Close)

	service, err := NewService(Config{
		AccessToken:    testToken,
		DriveEndpoint:  server.URL + "/",
		LabelsEndpoint: server.URL + "/",
	})
	require.NoError(t, err)
	return ts, service
}

func (ts *testServer) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	ts.mu.Lock()
	ts.requests = append(ts.requests, r)
	ts.bodies = append(ts.bodies, string(body))
	ts.mu.Unlock()

	assert.Equal(ts.t, "Bearer "+testToken, r.Header.Get("Authorization"))
	assert.Contains(ts.t, r.Header.Get("User-Agent"), info.AppName+"/")

	handler, ok := ts.routes[r.Method+" "+r.URL.Path]
	if !ok {
		ts.t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		writeError(w, http.StatusNotImplemented, "", "unexpected request")
		return
	}
	r.Body = io.NopCloser(strings.NewReader(string(body)))
	handler(w, r)
}

func (ts *testServer) count(method, path string) int {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	count := 0
	for _, r := range ts.requests {
		if r.Method == method && r.URL.Path == path {
			count++
		}
	}
	return count
}

func (ts *testServer) lastBody() string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if len(ts.bodies) == 0 {
		return ""
	}
	return ts.bodies[len(ts.bodies)-1]
}

func writeJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

func writeError(w http.ResponseWriter, code int, reason, message string) {
	payload := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
			"errors":  []map[string]any{{"reason": reason, "message": message}},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func failWith(code int, reason, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, code, reason, message)
	}
}
