package github

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"linkguard/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishUpdatesExistingFile(t *testing.T) {
	var put githubFileRequest
	var gets int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/subs/contents/out/sub.txt", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch r.Method {
		case http.MethodGet:
			if atomic.AddInt32(&gets, 1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			assert.Equal(t, "main", r.URL.Query().Get("ref"))
			json.NewEncoder(w).Encode(githubFileResponse{Sha: "abc123"})
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&put))
			w.WriteHeader(http.StatusCreated)
		}
	}))
	defer srv.Close()

	p := &Publisher{}
	err := p.Publish([]model.Link{{Raw: "trojan://secret@example.com:443"}}, map[string]interface{}{
		"token":   "tok",
		"owner":   "acme",
		"repo":    "subs",
		"path":    "/out/sub.txt",
		"branch":  "main",
		"api_url": srv.URL + "/",
		"retries": 1,
	})
	require.NoError(t, err)

	assert.EqualValues(t, 2, atomic.LoadInt32(&gets))
	assert.Equal(t, "abc123", put.Sha)
	assert.Equal(t, "main", put.Branch)
	content, err := base64.StdEncoding.DecodeString(put.Content)
	require.NoError(t, err)
	assert.Contains(t, string(content), "trojan://secret@example.com:443")
}

func TestPublishPermanentFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := &Publisher{}
	err := p.Publish(nil, map[string]interface{}{
		"token": "bad", "owner": "o", "repo": "r", "path": "p", "api_url": srv.URL, "retries": 3,
	})
	assert.ErrorContains(t, err, "401")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestPublishRequiresParams(t *testing.T) {
	p := &Publisher{}
	assert.Error(t, p.Publish(nil, map[string]interface{}{"token": "t"}))
}

func TestPublishRejectsInvalidContentsURL(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	p := &Publisher{}
	var err error
	require.NotPanics(t, func() {
		err = p.Publish(nil, map[string]interface{}{
			"token": "t", "owner": "o", "repo": "r", "path": "sub%zz.txt", "api_url": srv.URL, "retries": 3,
		})
	})
	assert.ErrorContains(t, err, "invalid contents url")
	assert.EqualValues(t, 0, atomic.LoadInt32(&calls))
}
