package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v59/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depsentry/depsentry/scan"
)

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	restClient := github.NewClient(nil)
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	restClient.BaseURL = baseURL
	restClient.UploadURL = baseURL
	return &Client{restClient: restClient}
}

func TestGetUserReposRunningTotal(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/users/octocat/repos", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"full_name":"octocat/three","name":"three","owner":{"login":"octocat"},"archived":true}]`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(
			`<%s/users/octocat/repos?page=2>; rel="next", <%s/users/octocat/repos?page=2>; rel="last"`,
			server.URL, server.URL))
		fmt.Fprint(w, `[
			{"full_name":"octocat/one","name":"one","owner":{"login":"octocat"}},
			{"full_name":"octocat/two","name":"two","owner":{"login":"octocat"},"fork":true}
		]`)
	})

	var batches []scan.RepoBatch
	for batch := range newTestClient(t, server).GetUserRepos(context.Background(), "octocat") {
		require.NoError(t, batch.Err)
		batches = append(batches, batch)
	}

	require.Len(t, batches, 2)
	assert.Equal(t, 2, batches[0].TotalCount)
	assert.Equal(t, 3, batches[1].TotalCount)

	require.Len(t, batches[0].Repositories, 2)
	assert.Equal(t, "octocat/one", batches[0].Repositories[0].GetRepoIdentifier())
	assert.Equal(t, "octocat", batches[0].Repositories[0].GetOwner())
	assert.True(t, batches[0].Repositories[1].GetIsFork())
	assert.True(t, batches[1].Repositories[0].GetIsArchived())
}

func TestGetUserReposListingError(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/users/octocat/repos", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"API rate limit exceeded"}`, http.StatusUnprocessableEntity)
	})

	var batches []scan.RepoBatch
	for batch := range newTestClient(t, server).GetUserRepos(context.Background(), "octocat") {
		batches = append(batches, batch)
	}

	require.Len(t, batches, 1)
	assert.Error(t, batches[0].Err)
}

func TestGetFileContentNotFound(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/repos/octocat/dotfiles/contents/package.json", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})

	_, err := newTestClient(t, server).GetFileContent(context.Background(), "octocat", "dotfiles", "package.json")
	assert.ErrorIs(t, err, scan.ErrManifestNotFound)
}

func TestGetFileContentAuthError(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/repos/octocat/private/contents/package.json", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
	})

	_, err := newTestClient(t, server).GetFileContent(context.Background(), "octocat", "private", "package.json")
	require.Error(t, err)

	var authErr *scan.AuthError
	assert.True(t, errors.As(err, &authErr))
}
