package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	herrors "github.com/pankaj-dahiya-devops/aws-hygiene/internal/errors"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/logger"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/models"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/providers/aws/network"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/reachability"
)

// FetcherBuilder returns the region-scoped fetcher factory for one loaded
// profile.
type FetcherBuilder func(profile *common.ProfileConfig) reachability.FetcherFactory

// DefaultEngine is the production implementation of Engine.
// It never calls the AWS SDK directly.
type DefaultEngine struct {
	provider common.AWSClientProvider
	fetchers FetcherBuilder
	logger   *zap.Logger
	now      func() time.Time
}

// NewDefaultEngine constructs a DefaultEngine that scans regions with real
// EC2 fetchers built from provider.
func NewDefaultEngine(provider common.AWSClientProvider, log *zap.Logger) *DefaultEngine {
	return NewDefaultEngineWithFetchers(provider, func(pc *common.ProfileConfig) reachability.FetcherFactory {
		return network.NewFetcherFactory(provider, pc)
	}, log)
}

// NewDefaultEngineWithFetchers is NewDefaultEngine with an injectable
// FetcherBuilder. Pass stub fetchers in tests.
func NewDefaultEngineWithFetchers(provider common.AWSClientProvider, fetchers FetcherBuilder, log *zap.Logger) *DefaultEngine {
	if log == nil {
		log = logger.For("engine")
	}
	return &DefaultEngine{
		provider: provider,
		fetchers: fetchers,
		logger:   log,
		now:      time.Now,
	}
}

// RunScan implements Engine.
//
// Profiles are scanned one after another. A profile that cannot be loaded is
// recorded in the report's Failures and skipped; in single-profile mode that
// failure is also returned as the error. In all-profiles mode an error is
// returned only when no profile could be scanned.
//
// When ctx is cancelled the report built so far is returned together with
// the context error.
func (e *DefaultEngine) RunScan(ctx context.Context, opts ScanOptions) (*models.ScanReport, error) {
	names, err := e.profileNames(ctx, opts)
	if err != nil {
		return nil, err
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	report := &models.ScanReport{
		ReportID:    fmt.Sprintf("scan-%d", e.now().UnixNano()),
		GeneratedAt: e.now().UTC(),
	}

	var (
		scanned int
		lastErr error
	)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		summary, err := e.scanProfile(ctx, name, opts, concurrency, report)
		if err != nil {
			log := e.logger.With(zap.String("profile", name))
			log.Warn("Profile skipped", zap.String("operation", "profile_scan"), zap.Error(err))
			report.Failures = append(report.Failures, models.ScanFailure{Profile: name, Error: err.Error()})
			lastErr = err
			if !opts.AllProfiles {
				return report, err
			}
			continue
		}
		scanned++
		report.Profiles = append(report.Profiles, *summary)
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	if scanned == 0 {
		return report, herrors.New(herrors.ErrAWSProfile, "all profiles failed; no data collected", nil, lastErr)
	}
	return report, nil
}

// profileNames returns the display names of the profiles to scan.
func (e *DefaultEngine) profileNames(ctx context.Context, opts ScanOptions) ([]string, error) {
	if !opts.AllProfiles {
		return []string{displayName(opts.Profile)}, nil
	}

	all, err := e.provider.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	names, err := common.FilterProfiles(all, opts.ProfileFilter)
	if err != nil {
		return nil, herrors.New(herrors.ErrConfigInvalid, "invalid profile filter", nil, err)
	}
	if len(names) == 0 {
		return nil, herrors.New(herrors.ErrAWSProfile, "no AWS profiles found",
			map[string]interface{}{"filter": opts.ProfileFilter}, nil)
	}
	return names, nil
}

// scanProfile loads one profile, scans its regions and appends rows and
// region failures to report. The returned error covers profile-level
// failures only.
func (e *DefaultEngine) scanProfile(
	ctx context.Context,
	name string,
	opts ScanOptions,
	concurrency int,
	report *models.ScanReport,
) (*models.ProfileSummary, error) {
	arg := name
	if name == "default" {
		arg = ""
	}

	profile, err := e.provider.LoadProfile(ctx, arg)
	if err != nil {
		return nil, err
	}

	regions, err := e.resolveRegions(ctx, profile, opts.Regions)
	if err != nil {
		return nil, err
	}
	if opts.OnProfileStart != nil {
		opts.OnProfileStart(profile.ProfileName, regions)
	}

	results := e.scanRegions(ctx, profile, regions, concurrency, opts.OnRegionDone)

	summary := &models.ProfileSummary{
		Profile:      profile.ProfileName,
		AccountID:    profile.AccountID,
		PrincipalARN: profile.PrincipalARN,
		Regions:      regions,
	}
	for _, res := range results {
		switch {
		case !res.started:
			// Not scheduled because ctx was cancelled.
		case res.err != nil:
			report.Failures = append(report.Failures, models.ScanFailure{
				Profile: profile.ProfileName,
				Region:  res.region,
				Error:   res.err.Error(),
			})
		default:
			for _, row := range res.rows {
				row.Profile = profile.ProfileName
				row.AccountID = profile.AccountID
				report.Rows = append(report.Rows, row)
			}
			summary.PublicInstances += len(res.rows)
		}
	}
	return summary, nil
}

// resolveRegions returns the explicit region list when provided, otherwise
// calls GetActiveRegions to discover opted-in regions for the profile.
func (e *DefaultEngine) resolveRegions(
	ctx context.Context,
	profile *common.ProfileConfig,
	explicit []string,
) ([]string, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}
	return e.provider.GetActiveRegions(ctx, profile)
}

func displayName(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}

// ---------------------------------------------------------------------------
// Region fan-out
// ---------------------------------------------------------------------------

// regionResult is the per-region slot written by exactly one goroutine.
type regionResult struct {
	region  string
	started bool
	rows    []models.ClassificationRow
	err     error
}

// scanRegions scans regions in parallel, at most concurrency at a time, and
// returns one result per region in input order.
//
// A failing region never cancels its siblings: goroutines always return nil
// and report the failure through their slot. Only cancellation of ctx stops
// new regions from being scheduled.
func (e *DefaultEngine) scanRegions(
	ctx context.Context,
	profile *common.ProfileConfig,
	regions []string,
	concurrency int,
	onDone func(profile, region string, err error),
) []regionResult {
	scanner := reachability.NewRegionScanner(e.fetchers(profile), e.logger)
	results := make([]regionResult, len(regions))
	sem := make(chan struct{}, concurrency)

	g, gctx := errgroup.WithContext(ctx)

REGIONS:
	for i, region := range regions {
		results[i].region = region
		if gctx.Err() != nil {
			break
		}
		select {
		case sem <- struct{}{}:
		case <-gctx.Done():
			break REGIONS
		}
		results[i].started = true

		g.Go(func() error {
			defer func() { <-sem }()

			log := e.logger.With(
				zap.String("profile", profile.ProfileName),
				zap.String("region", region),
			)
			rows, err := scanner.Scan(gctx, region)
			if err != nil {
				log.Warn("Region scan failed",
					zap.String("operation", "region_scan"),
					zap.String("api_code", herrors.APICode(err)),
					zap.Error(err),
				)
			} else {
				log.Info("Region scanned",
					zap.String("operation", "region_scan"),
					zap.Int("public_instances", len(rows)),
				)
			}
			results[i].rows = rows
			results[i].err = err

			if onDone != nil {
				onDone(profile.ProfileName, region, err)
			}
			return nil
		})
	}

	_ = g.Wait()
	return results
}
