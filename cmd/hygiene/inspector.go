package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/config"
	herrors "github.com/pankaj-dahiya-devops/aws-hygiene/internal/errors"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/inspector"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/logger"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/output"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/providers/aws/common"
)

// ── inspector findings ───────────────────────────────────────────────────────

// reportFlagKeys binds the flags shared by the single-region reporters.
var reportFlagKeys = map[string]string{
	"scan.profile":  "profile",
	"output.format": "format",
	"output.dir":    "output-dir",
}

// reportOptions are the resolved settings of a single-region reporter.
type reportOptions struct {
	profile   string
	region    string
	format    string
	outputDir string
}

func reportOptionsFrom(cmd *cobra.Command, cfg *config.Config) reportOptions {
	region, _ := cmd.Flags().GetString("region")
	return reportOptions{
		profile:   cfg.Scan.Profile,
		region:    region,
		format:    cfg.Output.Format,
		outputDir: cfg.Output.Dir,
	}
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().String("profile", "", "AWS profile name (default: uses environment / default profile)")
	cmd.Flags().String("region", "", "AWS region (default: the profile's region)")
	cmd.Flags().String("format", config.FormatCSV, "Output format: csv, table or json")
	cmd.Flags().String("output-dir", "outputs", "Directory for CSV reports")
}

func newInspectorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspector",
		Short: "Amazon Inspector checks",
	}
	cmd.AddCommand(newFindingsCmd())
	return cmd
}

func newFindingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "findings",
		Short: "Summarise ACTIVE Inspector findings for EC2 instances",
		Long: `Lists the ACTIVE Amazon Inspector v2 findings for EC2 instances in one
region and summarises them by severity, fix availability and instance. The csv
format also writes the findings and the per-instance summary to dated files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, reportFlagKeys)
			if err != nil {
				return err
			}
			instanceID, _ := cmd.Flags().GetString("instance-id")
			provider := common.NewDefaultAWSClientProvider().WithRetryMaxAttempts(cfg.Scan.MaxAttempts)
			return runInspectorFindings(cmd.Context(), provider, inspector.NewFindingsClient,
				reportOptionsFrom(cmd, cfg), instanceID, cmd.OutOrStdout(), time.Now())
		},
	}
	addReportFlags(cmd)
	cmd.Flags().String("instance-id", "", "Only report findings for this instance")
	return cmd
}

// reportConfig loads the profile and returns its SDK config for the region
// named in opts, or for the profile's own region.
func reportConfig(ctx context.Context, provider common.AWSClientProvider, opts reportOptions) (aws.Config, string, error) {
	pc, err := provider.LoadProfile(ctx, opts.profile)
	if err != nil {
		return aws.Config{}, "", err
	}
	region := opts.region
	if region == "" {
		region = pc.Region
	}
	if region == "" {
		return aws.Config{}, "", herrors.New(herrors.ErrConfigInvalid,
			"no region: pass --region or set one in the AWS profile",
			map[string]interface{}{"profile": pc.ProfileName}, nil)
	}
	return provider.ConfigForRegion(pc, region), region, nil
}

// runInspectorFindings lists and summarises the findings of one region.
func runInspectorFindings(
	ctx context.Context,
	provider common.AWSClientProvider,
	newClient func(aws.Config) inspector.FindingsAPI,
	opts reportOptions,
	instanceID string,
	w io.Writer,
	now time.Time,
) error {
	log := logger.For("cli")

	awsCfg, region, err := reportConfig(ctx, provider, opts)
	if err != nil {
		return err
	}
	findings, err := inspector.ListActiveEC2Findings(ctx, newClient(awsCfg), instanceID)
	if err != nil {
		return err
	}
	report := inspector.Summarize(region, instanceID, findings)
	log.Info("Inspector findings listed",
		zap.String("operation", "list_findings"),
		zap.String("region", region),
		zap.Int("findings", len(report.Findings)),
		zap.Int("instances", len(report.Instances)),
	)

	switch opts.format {
	case config.FormatJSON:
		return output.WriteJSON(w, report)
	case config.FormatTable:
		output.RenderFindingsSummary(w, report)
		return nil
	}

	output.RenderFindingsSummary(w, report)
	if len(report.Findings) == 0 {
		return nil
	}
	findingsPath, err := output.WriteFile(opts.outputDir, output.FindingsFileName(now), func(fw io.Writer) error {
		return output.WriteFindingsCSV(fw, report.Findings)
	})
	if err != nil {
		return err
	}
	summaryPath, err := output.WriteFile(opts.outputDir, output.InstanceSummaryFileName(now), func(fw io.Writer) error {
		return output.WriteInstanceSummaryCSV(fw, report.Instances)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nFindings saved to %s\nInstance summary saved to %s\n", findingsPath, summaryPath)
	return nil
}
