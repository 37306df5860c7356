package common

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	herrors "github.com/pankaj-dahiya-devops/aws-hygiene/internal/errors"
)

// fallbackRegion is used when a profile has no region configured, so that
// SDK clients can still be constructed.
const fallbackRegion = "us-east-1"

// DefaultAWSClientProvider is the production implementation of AWSClientProvider.
// It reads credentials from the standard AWS shared config and credentials files
// (~/.aws/config and ~/.aws/credentials) using the AWS SDK v2.
//
// Inject a custom ClientFactory via NewDefaultAWSClientProviderWithFactory to
// replace real SDK clients with mocks in unit tests.
type DefaultAWSClientProvider struct {
	factory     ClientFactory
	maxAttempts int
}

// NewDefaultAWSClientProvider returns a provider backed by the real AWS SDK.
func NewDefaultAWSClientProvider() *DefaultAWSClientProvider {
	return &DefaultAWSClientProvider{factory: NewClientSet}
}

// NewDefaultAWSClientProviderWithFactory returns a provider that uses f to
// create its ClientSet. Pass a mock factory in tests.
func NewDefaultAWSClientProviderWithFactory(f ClientFactory) *DefaultAWSClientProvider {
	return &DefaultAWSClientProvider{factory: f}
}

// WithRetryMaxAttempts sets the SDK's standard-mode retry budget for every
// profile loaded afterwards. Values below 1 keep the SDK default.
func (p *DefaultAWSClientProvider) WithRetryMaxAttempts(n int) *DefaultAWSClientProvider {
	p.maxAttempts = n
	return p
}

// ---------------------------------------------------------------------------
// AWSClientProvider implementation
// ---------------------------------------------------------------------------

// LoadProfile loads the AWS SDK config for the named profile and returns a
// fully populated ProfileConfig including the resolved caller identity and
// initialised service clients.
//
// Pass an empty string to load the default profile.
func (p *DefaultAWSClientProvider) LoadProfile(ctx context.Context, profile string) (*ProfileConfig, error) {
	name := profileDisplayName(profile)

	cfg, err := awsconfig.LoadDefaultConfig(ctx, p.loadOptions(profile)...)
	if err != nil {
		return nil, profileError(name, "load AWS profile", err)
	}
	if cfg.Region == "" {
		cfg.Region = fallbackRegion
	}

	clients := p.factory(cfg)

	accountID, principalARN, err := resolveIdentity(ctx, clients.STS)
	if err != nil {
		return nil, profileError(name, "resolve caller identity", err)
	}

	return &ProfileConfig{
		ProfileName:  name,
		AccountID:    accountID,
		PrincipalARN: principalARN,
		Region:       cfg.Region,
		Config:       cfg,
		Clients:      clients,
	}, nil
}

// ListProfiles discovers every profile defined in ~/.aws/credentials and
// ~/.aws/config. Profiles are returned in file order, credentials first,
// deduplicated.
func (p *DefaultAWSClientProvider) ListProfiles(_ context.Context) ([]string, error) {
	names, err := discoverProfileNames()
	if err != nil {
		return nil, herrors.New(herrors.ErrAWSProfile, "discover AWS profiles", nil, err)
	}
	return names, nil
}

// GetActiveRegions returns all AWS regions that are enabled (opted-in) for
// the account associated with cfg. It uses EC2 DescribeRegions, which is a
// global call and works correctly regardless of the client's home region.
func (p *DefaultAWSClientProvider) GetActiveRegions(ctx context.Context, cfg *ProfileConfig) ([]string, error) {
	out, err := cfg.Clients.EC2.DescribeRegions(ctx, &ec2.DescribeRegionsInput{
		// AllRegions false (default) returns only regions the account has
		// opted into.
		AllRegions: aws.Bool(false),
	})
	if err != nil {
		return nil, profileError(cfg.ProfileName, "describe regions", err)
	}

	regions := make([]string, 0, len(out.Regions))
	for _, r := range out.Regions {
		if r.RegionName != nil {
			regions = append(regions, *r.RegionName)
		}
	}
	return regions, nil
}

// ConfigForRegion returns a copy of cfg.Config with Region set to region.
func (p *DefaultAWSClientProvider) ConfigForRegion(cfg *ProfileConfig, region string) aws.Config {
	regional := cfg.Config
	regional.Region = region
	return regional
}

// ---------------------------------------------------------------------------
// Package-private helpers
// ---------------------------------------------------------------------------

func (p *DefaultAWSClientProvider) loadOptions(profile string) []func(*awsconfig.LoadOptions) error {
	var opts []func(*awsconfig.LoadOptions) error
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	if p.maxAttempts > 0 {
		opts = append(opts,
			awsconfig.WithRetryMode(aws.RetryModeStandard),
			awsconfig.WithRetryMaxAttempts(p.maxAttempts),
		)
	}
	return opts
}

// profileDisplayName returns a human-readable profile identifier. An empty
// string (the default profile) is shown as "default".
func profileDisplayName(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}

func profileError(profile, step string, err error) error {
	return herrors.New(herrors.ErrAWSProfile, fmt.Sprintf("%s for profile %q", step, profile),
		map[string]interface{}{"profile": profile}, err)
}

// resolveIdentity calls STS GetCallerIdentity and returns the account ID and
// principal ARN for the credentials currently loaded in stsClient.
func resolveIdentity(ctx context.Context, stsClient STSClient) (string, string, error) {
	out, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", "", fmt.Errorf("STS GetCallerIdentity: %w", err)
	}
	if out.Account == nil {
		return "", "", fmt.Errorf("STS GetCallerIdentity returned nil account")
	}
	return aws.ToString(out.Account), aws.ToString(out.Arn), nil
}

// discoverProfileNames reads ~/.aws/credentials and ~/.aws/config and returns
// the deduplicated list of all profile names found.
func discoverProfileNames() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	credProfiles, err := parseProfilesFromFile(sharedFilePath("AWS_SHARED_CREDENTIALS_FILE", home, "credentials"), false)
	if err != nil {
		return nil, err
	}
	cfgProfiles, err := parseProfilesFromFile(sharedFilePath("AWS_CONFIG_FILE", home, "config"), true)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var all []string
	for _, name := range append(credProfiles, cfgProfiles...) {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		all = append(all, name)
	}
	return all, nil
}

// sharedFilePath honours the SDK's environment overrides for the shared
// config and credentials files.
func sharedFilePath(envVar, home, base string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return filepath.Join(home, ".aws", base)
}

// parseProfilesFromFile scans path for INI section headers ([...]) and
// returns the profile name from each header.
//
// When stripProfilePrefix is true, the "profile " prefix used in
// ~/.aws/config is removed ("[profile staging]" becomes "staging").
// Non-profile sections of ~/.aws/config ([sso-session x], [services x]) are
// skipped.
//
// If the file does not exist, nil is returned without an error.
func parseProfilesFromFile(path string, stripProfilePrefix bool) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var profiles []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
			continue
		}

		name := strings.TrimSpace(line[1 : len(line)-1])

		if stripProfilePrefix && name != "default" {
			if !strings.HasPrefix(name, "profile ") {
				continue
			}
			name = strings.TrimPrefix(name, "profile ")
		}

		profiles = append(profiles, strings.TrimSpace(name))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return profiles, nil
}
