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
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/identitycenter"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/logger"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/models"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/output"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/providers/aws/common"
)

// ── iam permission-sets ──────────────────────────────────────────────────────

func newIAMCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "iam",
		Short: "IAM and Identity Center checks",
	}
	cmd.AddCommand(newPermissionSetsCmd())
	return cmd
}

func newPermissionSetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permission-sets",
		Short: "List Identity Center permission sets granting s3:* or iam:*",
		Long: `Reads the inline policy of every permission set in the first IAM Identity
Center instance and lists each statement granting s3:* or iam:*. Use --region
for the instance's home region when the profile's region differs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, reportFlagKeys)
			if err != nil {
				return err
			}
			provider := common.NewDefaultAWSClientProvider().WithRetryMaxAttempts(cfg.Scan.MaxAttempts)
			return runPermissionSets(cmd.Context(), provider, identitycenter.NewSSOAdminClient,
				reportOptionsFrom(cmd, cfg), cmd.OutOrStdout(), time.Now())
		},
	}
	addReportFlags(cmd)
	return cmd
}

// runPermissionSets scans the permission sets and writes the findings. The
// csv format always writes a file, header only when nothing was found.
func runPermissionSets(
	ctx context.Context,
	provider common.AWSClientProvider,
	newClient func(aws.Config) identitycenter.SSOAdminAPI,
	opts reportOptions,
	w io.Writer,
	now time.Time,
) error {
	log := logger.For("cli")

	awsCfg, region, err := reportConfig(ctx, provider, opts)
	if err != nil {
		return err
	}
	findings, err := identitycenter.NewChecker(newClient(awsCfg), logger.For("identitycenter")).Scan(ctx)
	if err != nil {
		return err
	}
	if findings == nil {
		findings = []models.PermissionSetFinding{}
	}
	log.Info("Permission sets checked",
		zap.String("operation", "check_permission_sets"),
		zap.String("region", region),
		zap.Int("findings", len(findings)),
	)

	switch opts.format {
	case config.FormatJSON:
		return output.WriteJSON(w, findings)
	case config.FormatTable:
		output.RenderPermissionSets(w, findings)
		return nil
	}

	path, err := output.WriteFile(opts.outputDir, output.PermissionSetFileName(now), func(fw io.Writer) error {
		return output.WritePermissionSetCSV(fw, findings)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote %d row(s) to %s\n", len(findings), path)
	return nil
}
