package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v59/github"
	"golang.org/x/oauth2"

	"github.com/depsentry/depsentry/scan"
)

const GitHub string = "github"

const defaultDomain = "github.com"

func NewGithubSCMClient(ctx context.Context, baseURL string, token string) (*ScmClient, error) {
	domain := defaultDomain
	if baseURL != "" {
		domain = baseURL
	}

	client, err := NewClient(ctx, token, domain)
	if err != nil {
		return nil, err
	}

	return &ScmClient{
		client:  client,
		baseURL: domain,
	}, nil
}

type ScmClient struct {
	scan.ScmClient
	client  *Client
	baseURL string
}

func (s *ScmClient) GetUserRepos(ctx context.Context, user string) <-chan scan.RepoBatch {
	return s.client.GetUserRepos(ctx, user)
}

func (s *ScmClient) GetRepo(ctx context.Context, owner string, name string) (scan.Repository, error) {
	return s.client.GetRepository(ctx, owner, name)
}

func (s *ScmClient) GetFileContent(ctx context.Context, owner string, name string, path string) ([]byte, error) {
	return s.client.GetFileContent(ctx, owner, name, path)
}

func (s *ScmClient) GetProviderName() string {
	return GitHub
}

func (s *ScmClient) GetProviderBaseURL() string {
	return s.baseURL
}

func (s *ScmClient) ParseRepoAndOrg(repoString string) (string, string, error) {
	parts := strings.Split(repoString, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo format %q, expected format <owner>/<repo>", repoString)
	}
	return parts[0], parts[1], nil
}

type GithubRepository struct {
	scan.Repository
	FullName string
	Owner    string
	Name     string
	Fork     bool
	Archived bool
}

func (gh GithubRepository) GetRepoIdentifier() string { return gh.FullName }
func (gh GithubRepository) GetOwner() string          { return gh.Owner }
func (gh GithubRepository) GetName() string           { return gh.Name }
func (gh GithubRepository) GetIsFork() bool           { return gh.Fork }
func (gh GithubRepository) GetIsArchived() bool       { return gh.Archived }

type Client struct {
	restClient *github.Client
	Token      string
}

func NewClient(ctx context.Context, token string, domain string) (*Client, error) {
	src := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	httpClient := oauth2.NewClient(ctx, src)

	rateLimiter, err := github_ratelimit.NewRateLimitWaiterClient(httpClient.Transport)
	if err != nil {
		return nil, err
	}

	restClient := github.NewClient(rateLimiter)
	if domain != defaultDomain {
		baseURL := fmt.Sprintf("https://%s/", domain)
		restClient, err = restClient.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, err
		}
	}

	return &Client{
		restClient: restClient,
		Token:      token,
	}, nil
}

func (c *Client) GetRepository(ctx context.Context, owner, name string) (scan.Repository, error) {
	repo, _, err := c.restClient.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	return newGithubRepository(repo), nil
}

// GetUserRepos drains the paginated repository listing for a user into
// batches. The REST listing carries no total, so TotalCount is the running
// count of repositories seen so far; the final batch holds the exact total.
// A listing failure terminates the channel with an Err batch.
func (c *Client) GetUserRepos(ctx context.Context, user string) <-chan scan.RepoBatch {
	batchChan := make(chan scan.RepoBatch)

	go func() {
		defer close(batchChan)

		opt := &github.RepositoryListByUserOptions{
			Type:        "owner",
			ListOptions: github.ListOptions{PerPage: 100},
		}

		total := 0
		for {
			repos, resp, err := c.restClient.Repositories.ListByUser(ctx, user, opt)
			if err != nil {
				select {
				case batchChan <- scan.RepoBatch{Err: err}:
				case <-ctx.Done():
				}
				return
			}

			total += len(repos)
			batch := scan.RepoBatch{
				TotalCount:   total,
				Repositories: convertToRepositorySlice(repos),
			}
			select {
			case batchChan <- batch:
			case <-ctx.Done():
				return
			}

			if resp.NextPage == 0 {
				break
			}
			opt.Page = resp.NextPage
		}
	}()

	return batchChan
}

// GetFileContent fetches and decodes one file from the repository's default
// branch. Not-found and auth failures map to the scan package's typed errors.
func (c *Client) GetFileContent(ctx context.Context, owner, repo, path string) ([]byte, error) {
	fileContent, _, _, err := c.restClient.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		var errorResponse *github.ErrorResponse
		if errors.As(err, &errorResponse) {
			switch errorResponse.Response.StatusCode {
			case http.StatusNotFound:
				return nil, scan.ErrManifestNotFound
			case http.StatusUnauthorized, http.StatusForbidden:
				return nil, &scan.AuthError{Repo: owner + "/" + repo, Err: err}
			}
		}
		return nil, fmt.Errorf("failed to get %s for %s/%s: %w", path, owner, repo, err)
	}

	if fileContent == nil {
		// The path resolved to a directory listing.
		return nil, scan.ErrManifestNotFound
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s for %s/%s: %w", path, owner, repo, err)
	}
	return []byte(content), nil
}

func newGithubRepository(repo *github.Repository) GithubRepository {
	return GithubRepository{
		FullName: repo.GetFullName(),
		Owner:    repo.GetOwner().GetLogin(),
		Name:     repo.GetName(),
		Fork:     repo.GetFork(),
		Archived: repo.GetArchived(),
	}
}

func convertToRepositorySlice(githubRepos []*github.Repository) []scan.Repository {
	repos := make([]scan.Repository, len(githubRepos))
	for i, repo := range githubRepos {
		repos[i] = newGithubRepository(repo)
	}
	return repos
}
