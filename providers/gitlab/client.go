package gitlab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gitlab.com/gitlab-org/api/client-go"

	"github.com/depsentry/depsentry/scan"
)

const GitLab string = "gitlab"

const defaultDomain = "gitlab.com"

func NewGitlabSCMClient(ctx context.Context, baseURL string, token string) (*ScmClient, error) {
	domain := defaultDomain
	if baseURL != "" {
		domain = baseURL
	}

	client, err := NewClient(ctx, domain, token)
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
	return s.client.ListUserProjects(ctx, user)
}

func (s *ScmClient) GetRepo(ctx context.Context, owner string, name string) (scan.Repository, error) {
	return s.client.GetProject(ctx, owner+"/"+name)
}

func (s *ScmClient) GetFileContent(ctx context.Context, owner string, name string, path string) ([]byte, error) {
	return s.client.GetFileContent(ctx, owner, name, path)
}

func (s *ScmClient) GetProviderName() string {
	return GitLab
}

func (s *ScmClient) GetProviderBaseURL() string {
	return s.baseURL
}

func (s *ScmClient) ParseRepoAndOrg(repoString string) (string, string, error) {
	index := strings.LastIndex(repoString, "/")
	if index == -1 {
		return "", "", errors.New("invalid gitlab project format")
	}

	namespace := repoString[:index]
	project := repoString[index+1:]

	if namespace == "" || project == "" {
		return "", "", errors.New("invalid gitlab project format")
	}

	return namespace, project, nil
}

type GitLabRepo struct {
	scan.Repository
	PathWithNamespace string
	Namespace         string
	Path              string
	IsFork            bool
	IsArchived        bool
}

func (gl GitLabRepo) GetRepoIdentifier() string { return gl.PathWithNamespace }
func (gl GitLabRepo) GetOwner() string          { return gl.Namespace }
func (gl GitLabRepo) GetName() string           { return gl.Path }
func (gl GitLabRepo) GetIsFork() bool           { return gl.IsFork }
func (gl GitLabRepo) GetIsArchived() bool       { return gl.IsArchived }

type Client struct {
	Token  string
	client *gitlab.Client
}

func NewClient(ctx context.Context, baseURL string, token string) (*Client, error) {
	gitlabClient, err := gitlab.NewClient(token, gitlab.WithBaseURL(fmt.Sprintf("https://%s", baseURL)))
	if err != nil {
		return nil, fmt.Errorf("failed to create gitlab client: %w", err)
	}
	return &Client{
		Token:  token,
		client: gitlabClient,
	}, nil
}

func (c *Client) ListUserProjects(ctx context.Context, user string) <-chan scan.RepoBatch {
	batchChan := make(chan scan.RepoBatch)

	go func() {
		defer close(batchChan)

		opt := &gitlab.ListProjectsOptions{
			ListOptions: gitlab.ListOptions{
				PerPage: 100,
				Page:    1,
			},
		}

		for {
			projects, resp, err := c.client.Projects.ListUserProjects(user, opt, gitlab.WithContext(ctx))
			if err != nil {
				select {
				case batchChan <- scan.RepoBatch{Err: err}:
				case <-ctx.Done():
				}
				return
			}

			batch := scan.RepoBatch{
				TotalCount:   resp.TotalItems,
				Repositories: projectsToRepos(projects),
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

func (c *Client) GetProject(ctx context.Context, projectID string) (scan.Repository, error) {
	project, _, err := c.client.Projects.GetProject(projectID, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return projectToRepo(project), nil
}

func (c *Client) GetFileContent(ctx context.Context, owner, repo, path string) ([]byte, error) {
	pid := owner + "/" + repo

	// No ref: GitLab serves the file from the project's default branch.
	data, resp, err := c.client.RepositoryFiles.GetRawFile(pid, path, &gitlab.GetRawFileOptions{}, gitlab.WithContext(ctx))
	if err != nil {
		if resp != nil {
			switch resp.StatusCode {
			case http.StatusNotFound:
				return nil, scan.ErrManifestNotFound
			case http.StatusUnauthorized, http.StatusForbidden:
				return nil, &scan.AuthError{Repo: pid, Err: err}
			}
		}
		return nil, fmt.Errorf("failed to get %s for %s: %w", path, pid, err)
	}
	return data, nil
}

func projectToRepo(project *gitlab.Project) GitLabRepo {
	// Personal project payloads can omit the namespace object.
	namespace := ""
	if project.Namespace != nil {
		namespace = project.Namespace.FullPath
	} else if i := strings.LastIndex(project.PathWithNamespace, "/"); i > 0 {
		namespace = project.PathWithNamespace[:i]
	}

	return GitLabRepo{
		PathWithNamespace: project.PathWithNamespace,
		Namespace:         namespace,
		Path:              project.Path,
		IsFork:            project.ForkedFromProject != nil,
		IsArchived:        project.Archived,
	}
}

func projectsToRepos(projects []*gitlab.Project) []scan.Repository {
	repos := make([]scan.Repository, len(projects))
	for i, project := range projects {
		repos[i] = projectToRepo(project)
	}
	return repos
}
