// Package scan drives the audit over a user's repository fleet.
package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/semaphore"

	"github.com/depsentry/depsentry/audit"
	"github.com/depsentry/depsentry/models"
	"github.com/depsentry/depsentry/results"
)

type Repository interface {
	GetRepoIdentifier() string
	GetOwner() string
	GetName() string
	GetIsFork() bool
	GetIsArchived() bool
}

type RepoBatch struct {
	TotalCount   int
	Repositories []Repository
	Err          error
}

type ScmClient interface {
	GetUserRepos(ctx context.Context, user string) <-chan RepoBatch
	GetRepo(ctx context.Context, owner string, name string) (Repository, error)
	GetFileContent(ctx context.Context, owner string, name string, path string) ([]byte, error)
	GetProviderName() string
	ParseRepoAndOrg(string) (string, string, error)
}

// Formatter renders the aggregated report to the console. The JSON report
// artifact is written regardless of the formatter in use.
type Formatter interface {
	Format(ctx context.Context, report *results.ScanReport) error
}

type Scanner struct {
	scm       ScmClient
	auditor   *audit.Auditor
	formatter Formatter
	config    *models.Config
}

func NewScanner(scm ScmClient, auditor *audit.Auditor, formatter Formatter, config *models.Config) *Scanner {
	if config == nil {
		config = models.DefaultConfig()
	}
	return &Scanner{
		scm:       scm,
		auditor:   auditor,
		formatter: formatter,
		config:    config,
	}
}

// ScanUser audits every repository belonging to user, skipping archived
// repositories and forks before any fetch. Repositories are processed with at
// most *threads workers (default 1); findings are merged back in enumeration
// order so the report is identical at any parallelism.
func (s *Scanner) ScanUser(ctx context.Context, user string, threads *int) (*results.ScanReport, error) {
	// Cancel on any return so the enumeration goroutine is never left
	// blocked on a channel send.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	provider := s.scm.GetProviderName()
	log.Info().Msgf("Auditing npm supply chain for user %s on %s", user, provider)

	maxWorkers := 1
	if threads != nil && *threads > 0 {
		maxWorkers = *threads
	}
	sem := semaphore.NewWeighted(int64(maxWorkers))

	bar := progressbar.NewOptions(
		0,
		progressbar.OptionSetDescription("Auditing repositories"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
	)

	report := &results.ScanReport{}
	scanned := 0

	for batch := range s.scm.GetUserRepos(ctx, user) {
		if batch.Err != nil {
			return nil, fmt.Errorf("failed to list repositories for %s: %w", user, batch.Err)
		}
		// GitLab reports the exact total up front; GitHub batches carry a
		// running count that settles on the final page.
		if batch.TotalCount > bar.GetMax() {
			log.Info().Msgf("Found %d repositories", batch.TotalCount)
			bar.ChangeMax(batch.TotalCount)
		} else if batch.TotalCount == 0 {
			bar.ChangeMax(bar.GetMax() + len(batch.Repositories))
		}

		outcomes := make([]*repoOutcome, len(batch.Repositories))
		errChan := make(chan error, len(batch.Repositories))
		var wg sync.WaitGroup

		for i, repo := range batch.Repositories {
			if repo.GetIsArchived() || repo.GetIsFork() {
				outcomes[i] = &repoOutcome{repo: repo, status: statusSkipped}
				_ = bar.Add(1)
				continue
			}

			if err := sem.Acquire(ctx, 1); err != nil {
				return nil, fmt.Errorf("failed to acquire semaphore: %w", err)
			}
			wg.Add(1)
			go func(i int, repo Repository) {
				defer sem.Release(1)
				defer wg.Done()
				outcome, err := s.scanRepository(ctx, repo)
				if err != nil {
					errChan <- err
					return
				}
				outcomes[i] = outcome
				_ = bar.Add(1)
			}(i, repo)
		}

		wg.Wait()
		close(errChan)
		for err := range errChan {
			if err != nil {
				return nil, err
			}
		}

		for _, outcome := range outcomes {
			if outcome == nil {
				continue
			}
			outcome.render()
			if outcome.status != statusSkipped {
				scanned++
			}
			report.Append(outcome.findings...)
		}
	}

	fmt.Fprint(os.Stderr, "\n\n")

	return report, s.finalize(ctx, report, scanned)
}

// ScanRepo audits a single repository given as owner/name. Archived and fork
// states are not filtered here: an explicitly named repository is audited.
func (s *Scanner) ScanRepo(ctx context.Context, repoString string) (*results.ScanReport, error) {
	owner, name, err := s.scm.ParseRepoAndOrg(repoString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse repository: %w", err)
	}

	repo, err := s.scm.GetRepo(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get repo %s: %w", repoString, err)
	}

	outcome, err := s.scanRepository(ctx, repo)
	if err != nil {
		return nil, err
	}
	outcome.render()

	report := &results.ScanReport{}
	report.Append(outcome.findings...)

	return report, s.finalize(ctx, report, 1)
}

func (s *Scanner) finalize(ctx context.Context, report *results.ScanReport, scanned int) error {
	resolved, err := report.WriteFile(s.config.ReportPath)
	if err != nil {
		return err
	}

	if s.formatter != nil {
		if err := s.formatter.Format(ctx, report); err != nil {
			return err
		}
	}

	log.Info().Msgf("Scan complete: %d findings across %d repositories", report.Count(), scanned)
	log.Info().Msgf("Report written to %s", resolved)
	return nil
}

// scanRepository fetches and audits one repository. Expected conditions
// (missing manifest) and recoverable fetch or parse failures are folded into
// the outcome; only auth failures escape as errors.
func (s *Scanner) scanRepository(ctx context.Context, repo Repository) (*repoOutcome, error) {
	manifest, err := s.fetchManifest(ctx, repo)
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return nil, err
		}
		if errors.Is(err, ErrManifestNotFound) {
			return &repoOutcome{repo: repo, status: statusNoManifest}, nil
		}
		return &repoOutcome{repo: repo, status: statusFailed, err: err}, nil
	}

	findings := s.auditor.Audit(repo.GetRepoIdentifier(), manifest)
	return &repoOutcome{repo: repo, status: statusScanned, findings: findings}, nil
}

func (s *Scanner) fetchManifest(ctx context.Context, repo Repository) (*models.PackageManifest, error) {
	data, err := s.scm.GetFileContent(ctx, repo.GetOwner(), repo.GetName(), models.ManifestPath)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrManifestNotFound
	}
	return models.ParsePackageManifest(data)
}

type repoStatus int

const (
	statusScanned repoStatus = iota
	statusSkipped
	statusNoManifest
	statusFailed
)

type repoOutcome struct {
	repo     Repository
	status   repoStatus
	findings []results.Finding
	err      error
}

// render emits the per-repository console lines in enumeration order.
func (o *repoOutcome) render() {
	id := o.repo.GetRepoIdentifier()
	switch o.status {
	case statusSkipped:
		log.Info().Msgf("[SKIP] %s (archived or fork)", id)
	case statusNoManifest:
		log.Info().Msgf("[SCAN] %s", id)
		log.Info().Msgf("[SKIP] %s: no %s, nothing to audit", id, models.ManifestPath)
	case statusFailed:
		log.Info().Msgf("[SCAN] %s", id)
		log.Warn().Msgf("[WARN] %s: failed to read manifest: %v", id, o.err)
	case statusScanned:
		log.Info().Msgf("[SCAN] %s", id)
		if len(o.findings) == 0 {
			log.Info().Msgf("[OK] %s: no findings", id)
			return
		}
		log.Warn().Msgf("[WARN] %s: %d findings", id, len(o.findings))
		for _, finding := range o.findings {
			renderFinding(finding)
		}
	}
}

func renderFinding(finding results.Finding) {
	switch finding.Type {
	case results.TypeLifecycleScript:
		for _, hook := range finding.Details.Scripts.Keys() {
			body, _ := finding.Details.Scripts.Get(hook)
			log.Warn().Msgf("  - lifecycle script %q runs: %s", hook, body)
		}
	case results.TypeCompromisedDependency:
		d := finding.Details
		log.Warn().Msgf("  - compromised dependency %s@%s in %s: %s (bad versions: %s)",
			d.Package, d.VersionRange, d.Section, d.Reason, strings.Join(d.BadVersions, ", "))
	}
}
