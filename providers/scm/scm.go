package scm

import (
	"context"
	"errors"
	"fmt"

	"github.com/depsentry/depsentry/providers/github"
	"github.com/depsentry/depsentry/providers/gitlab"
	"github.com/depsentry/depsentry/scan"
)

const (
	GitHub string = "github"
	GitLab string = "gitlab"
)

// NewScmClient selects the hosting provider. A missing token fails fast,
// before any network call.
func NewScmClient(ctx context.Context, providerType string, baseURL string, token string) (scan.ScmClient, error) {
	switch providerType {
	case "", GitHub:
		if token == "" {
			return nil, errors.New("token must be provided via --token flag or GH_TOKEN environment variable")
		}
		return github.NewGithubSCMClient(ctx, baseURL, token)
	case GitLab:
		if token == "" {
			return nil, errors.New("token must be provided via --token flag or GL_TOKEN environment variable")
		}
		return gitlab.NewGitlabSCMClient(ctx, baseURL, token)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
