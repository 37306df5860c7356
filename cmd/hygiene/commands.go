package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/config"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/engine"
	herrors "github.com/pankaj-dahiya-devops/aws-hygiene/internal/errors"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/logger"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/models"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/output"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/publish"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/retention"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hygiene",
		Short:         "AWS hygiene checks for EC2 exposure, log retention, Inspector findings and permission sets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "Config file (default: ~/.config/aws-hygiene/config.yaml)")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")

	root.AddCommand(newEC2Cmd())
	root.AddCommand(newLogsCmd())
	root.AddCommand(newInspectorCmd())
	root.AddCommand(newIAMCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Info())
		},
	}
}

// loadConfig reads the configuration for cmd. flagKeys maps config keys to
// the names of cmd's flags that override them. Logging starts at the level
// known before the file is read and is re-initialised at the final level.
func loadConfig(cmd *cobra.Command, flagKeys map[string]string) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	loader := config.NewLoader(path)

	if err := loader.BindFlag("log_level", cmd.Flags().Lookup("log-level")); err != nil {
		return nil, err
	}
	for key, name := range flagKeys {
		if err := loader.BindFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return nil, err
		}
	}

	logger.Bootstrap(loader.LogLevel())
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		return nil, herrors.New(herrors.ErrConfigInvalid, "invalid log_level",
			map[string]interface{}{"config_key": "log_level"}, err)
	}
	return cfg, nil
}

// ── ec2 public ───────────────────────────────────────────────────────────────

func newEC2Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ec2",
		Short: "EC2 checks",
	}
	cmd.AddCommand(newPublicCmd())
	return cmd
}

// publicFlagKeys binds `ec2 public` flags to their config keys.
var publicFlagKeys = map[string]string{
	"scan.profile":             "profile",
	"scan.all_profiles":        "all-profiles",
	"scan.profile_filter":      "profile-filter",
	"scan.regions":             "region",
	"scan.concurrency":         "concurrency",
	"output.format":            "format",
	"output.dir":               "output-dir",
	"output.s3_uri":            "s3-uri",
	"output.metrics_namespace": "metrics-namespace",
}

func newPublicCmd() *cobra.Command {
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "public",
		Short: "List EC2 instances reachable from the internet through an internet gateway",
		Long: `Scans every enabled region of one or more AWS profiles and lists the EC2
instances that have a public IPv4 address and whose effective route table
sends a default route to an internet gateway.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, publicFlagKeys)
			if err != nil {
				return err
			}

			provider := common.NewDefaultAWSClientProvider().WithRetryMaxAttempts(cfg.Scan.MaxAttempts)
			deps := newScanDeps(provider, cfg.Scan.Profile)

			var progress io.Writer
			if !noProgress {
				progress = cmd.ErrOrStderr()
			}
			return runPublicScan(cmd.Context(), cfg, deps, cmd.OutOrStdout(), progress)
		},
	}

	cmd.Flags().String("profile", "", "AWS profile name (default: uses environment / default profile)")
	cmd.Flags().Bool("all-profiles", false, "Scan all configured AWS profiles")
	cmd.Flags().StringSlice("profile-filter", nil, "Glob pattern(s) restricting --all-profiles (e.g. 'prod-*')")
	cmd.Flags().StringSlice("region", nil, "AWS region(s) to scan (default: all enabled regions)")
	cmd.Flags().Int("concurrency", engine.DefaultConcurrency, "Regions scanned in parallel per profile")
	cmd.Flags().String("format", config.FormatCSV, "Output format: csv, table or json")
	cmd.Flags().String("output-dir", "outputs", "Directory for the CSV report")
	cmd.Flags().String("s3-uri", "", "Also upload the CSV report to this s3://bucket/prefix")
	cmd.Flags().String("metrics-namespace", "", "Publish PublicInstanceCount to this CloudWatch namespace")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	cmd.MarkFlagsMutuallyExclusive("profile", "all-profiles")
	return cmd
}

// reportUploader stores a finished report. Satisfied by *publish.S3Publisher.
type reportUploader interface {
	Upload(ctx context.Context, uri, name, contentType string, body []byte) (string, error)
}

// metricsPublisher emits per-region counts. Satisfied by *publish.MetricsPublisher.
type metricsPublisher interface {
	Publish(ctx context.Context, report *models.ScanReport) (int, error)
}

// scanDeps is everything runPublicScan talks to. Publishers are built on
// demand so a scan without --s3-uri or --metrics-namespace never loads the
// publishing credentials.
type scanDeps struct {
	engine   engine.Engine
	uploader func(ctx context.Context) (reportUploader, error)
	metrics  func(ctx context.Context, namespace string) (metricsPublisher, error)
	now      func() time.Time
}

func newScanDeps(provider common.AWSClientProvider, profile string) scanDeps {
	// Reports and metrics go to the account of the selected profile, or of
	// the default credential chain in all-profiles mode.
	publishConfig := func(ctx context.Context) (aws.Config, error) {
		pc, err := provider.LoadProfile(ctx, profile)
		if err != nil {
			return aws.Config{}, err
		}
		return pc.Config, nil
	}

	return scanDeps{
		engine: engine.NewDefaultEngine(provider, logger.For("engine")),
		uploader: func(ctx context.Context) (reportUploader, error) {
			cfg, err := publishConfig(ctx)
			if err != nil {
				return nil, err
			}
			return publish.NewS3Publisher(cfg), nil
		},
		metrics: func(ctx context.Context, namespace string) (metricsPublisher, error) {
			cfg, err := publishConfig(ctx)
			if err != nil {
				return nil, err
			}
			return publish.NewMetricsPublisher(cfg, namespace), nil
		},
		now: time.Now,
	}
}

// runPublicScan runs the scan, writes the report in the configured format and
// publishes it. A partial report (cancelled scan, failed profile) is still
// written before the scan error is returned; publishing only happens after a
// complete scan.
func runPublicScan(ctx context.Context, cfg *config.Config, deps scanDeps, w, progress io.Writer) error {
	log := logger.For("cli")

	opts := engine.ScanOptions{
		Profile:       cfg.Scan.Profile,
		AllProfiles:   cfg.Scan.AllProfiles,
		ProfileFilter: cfg.Scan.ProfileFilter,
		Regions:       cfg.Scan.Regions,
		Concurrency:   cfg.Scan.Concurrency,
	}
	if progress != nil {
		p := &regionProgress{w: progress}
		opts.OnProfileStart = p.start
		opts.OnRegionDone = p.done
		defer p.finish()
	}

	report, scanErr := deps.engine.RunScan(ctx, opts)
	if report == nil {
		return scanErr
	}

	now := deps.now()
	if err := writeReport(w, cfg, report, now); err != nil {
		return err
	}
	if scanErr != nil {
		return scanErr
	}

	if cfg.Output.S3URI != "" && len(report.Rows) > 0 {
		var buf bytes.Buffer
		if err := output.WriteCSV(&buf, report.Rows); err != nil {
			return herrors.New(herrors.ErrOutput, "encode CSV report", nil, err)
		}
		up, err := deps.uploader(ctx)
		if err != nil {
			return err
		}
		dest, err := up.Upload(ctx, cfg.Output.S3URI, output.CSVFileName(now), "text/csv", buf.Bytes())
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Uploaded report to %s\n", dest)
	}

	if cfg.Output.MetricsNamespace != "" {
		mp, err := deps.metrics(ctx, cfg.Output.MetricsNamespace)
		if err != nil {
			return err
		}
		n, err := mp.Publish(ctx, report)
		if err != nil {
			return err
		}
		log.Info("Metrics published",
			zap.String("operation", "publish_metrics"),
			zap.String("namespace", cfg.Output.MetricsNamespace),
			zap.Int("datums", n),
		)
	}
	return nil
}

// regionProgress drives a progress bar over scanned regions. The bar is
// created when the first profile reports its regions and grows with each
// later one. Profiles start sequentially, so only done runs concurrently.
type regionProgress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func (p *regionProgress) start(profile string, regions []string) {
	if p.bar == nil {
		if len(regions) == 0 {
			return
		}
		p.bar = progressbar.NewOptions(len(regions),
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
		)
	} else {
		p.bar.ChangeMax(p.bar.GetMax() + len(regions))
	}
	p.bar.Describe(profile)
}

func (p *regionProgress) done(_, _ string, _ error) {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *regionProgress) finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	fmt.Fprintln(p.w)
}

// writeReport renders report to w. CSV goes to a dated file under the output
// directory and is skipped when there is nothing to write.
func writeReport(w io.Writer, cfg *config.Config, report *models.ScanReport, now time.Time) error {
	switch cfg.Output.Format {
	case config.FormatJSON:
		return output.RenderJSON(w, report)

	case config.FormatTable:
		output.RenderTable(w, report.Rows, output.TableOptions{
			IncludeProfile: cfg.Scan.AllProfiles || len(report.Profiles) > 1,
		})

	default:
		if len(report.Rows) == 0 {
			fmt.Fprintln(w, "No public EC2 instances found.")
			break
		}
		path, err := output.WriteCSVFile(cfg.Output.Dir, report.Rows, now)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Found %d public EC2 instance(s); report saved to %s\n", len(report.Rows), path)
	}

	output.RenderFailures(w, report.Failures)
	return nil
}

// ── logs no-retention ────────────────────────────────────────────────────────

func newLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "CloudWatch Logs checks",
	}
	cmd.AddCommand(newNoRetentionCmd())
	return cmd
}

func newNoRetentionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "no-retention",
		Short: "List log groups that never expire",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, map[string]string{
				"scan.profile": "profile",
				"scan.regions": "region",
			})
			if err != nil {
				return err
			}
			provider := common.NewDefaultAWSClientProvider().WithRetryMaxAttempts(cfg.Scan.MaxAttempts)
			return runNoRetention(cmd.Context(), provider, retention.NewLogsClient,
				cfg.Scan.Profile, cfg.Scan.Regions, cmd.OutOrStdout())
		},
	}
	cmd.Flags().String("profile", "", "AWS profile name (default: uses environment / default profile)")
	cmd.Flags().StringSlice("region", nil, "AWS region(s) to check (default: all enabled regions)")
	return cmd
}

// runNoRetention lists never-expiring log groups per region. A region that
// fails is reported and skipped; an error is returned only when every region
// failed.
func runNoRetention(
	ctx context.Context,
	provider common.AWSClientProvider,
	newLogs func(aws.Config) retention.LogsAPI,
	profile string,
	regions []string,
	w io.Writer,
) error {
	log := logger.For("cli")

	pc, err := provider.LoadProfile(ctx, profile)
	if err != nil {
		return err
	}
	if len(regions) == 0 {
		regions, err = provider.GetActiveRegions(ctx, pc)
		if err != nil {
			return err
		}
	}

	var (
		groups   []models.LogGroup
		failures []models.ScanFailure
	)
	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			return err
		}
		found, err := retention.NoRetentionLogGroups(ctx, newLogs(provider.ConfigForRegion(pc, region)), region)
		if err != nil {
			log.Warn("Log group listing failed",
				zap.String("operation", "list_log_groups"),
				zap.String("region", region),
				zap.String("api_code", herrors.APICode(err)),
				zap.Error(err),
			)
			failures = append(failures, models.ScanFailure{Profile: pc.ProfileName, Region: region, Error: err.Error()})
			continue
		}
		groups = append(groups, found...)
	}

	output.RenderLogGroups(w, groups)
	output.RenderFailures(w, failures)

	if len(regions) > 0 && len(failures) == len(regions) {
		return herrors.New(herrors.ErrRegionScan, "every region failed",
			map[string]interface{}{"profile": pc.ProfileName}, nil)
	}
	return nil
}
