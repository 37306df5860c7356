package engine

import (
	"context"

	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/models"
)

// DefaultConcurrency is the number of regions scanned in parallel per profile
// when ScanOptions.Concurrency is not set.
const DefaultConcurrency = 5

// ScanOptions configures a single public-EC2 scan.
// It is the sole input to Engine.RunScan.
type ScanOptions struct {
	// Profile is the named AWS profile to use. Empty means the default profile.
	Profile string

	// AllProfiles, when true, scans every configured AWS profile.
	AllProfiles bool

	// ProfileFilter restricts AllProfiles to names matching at least one of
	// these glob patterns.
	ProfileFilter []string

	// Regions is an explicit list of AWS regions to scan.
	// When empty the engine discovers and iterates all active regions.
	Regions []string

	// Concurrency bounds the number of regions scanned at once within a
	// profile. Defaults to DefaultConcurrency when zero.
	Concurrency int

	// OnProfileStart is called once per profile after its regions are known.
	OnProfileStart func(profile string, regions []string)

	// OnRegionDone is called after every region finishes, successfully or
	// not. It may be called from multiple goroutines at once.
	OnRegionDone func(profile, region string, err error)
}

// Engine is the central orchestration interface.
// It drives profile loading, region discovery and per-region reachability
// scans, returning a merged ScanReport.
//
// Engine must not call the AWS SDK directly; it delegates to the provider
// and fetcher interfaces.
type Engine interface {
	RunScan(ctx context.Context, opts ScanOptions) (*models.ScanReport, error)
}
