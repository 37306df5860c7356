package identitycenter

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssoadmin"
	"github.com/aws/aws-sdk-go-v2/service/ssoadmin/types"
	"go.uber.org/zap"

	herrors "github.com/pankaj-dahiya-devops/aws-hygiene/internal/errors"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/logger"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/models"
)

// Checker scans the permission sets of the first Identity Center instance
// visible to its client.
type Checker struct {
	client SSOAdminAPI
	logger *zap.Logger
}

// NewChecker returns a Checker. A nil log uses the package logger.
func NewChecker(client SSOAdminAPI, log *zap.Logger) *Checker {
	if log == nil {
		log = logger.For("identitycenter")
	}
	return &Checker{client: client, logger: log}
}

// NewCheckerFromConfig builds a Checker on a production SSO Admin client.
func NewCheckerFromConfig(cfg aws.Config, log *zap.Logger) *Checker {
	return NewChecker(NewSSOAdminClient(cfg), log)
}

// Scan returns one finding per broad action per statement across all
// permission sets. A permission set whose name, policy or policy JSON cannot
// be read is logged and skipped; failing to find the instance or to list
// permission sets is an error.
func (c *Checker) Scan(ctx context.Context) ([]models.PermissionSetFinding, error) {
	instanceARN, err := c.instanceARN(ctx)
	if err != nil {
		return nil, err
	}

	arns, err := c.permissionSets(ctx, instanceARN)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Permission sets listed",
		zap.String("operation", "list_permission_sets"),
		zap.Int("count", len(arns)),
	)

	var findings []models.PermissionSetFinding
	for _, psARN := range arns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := c.permissionSetName(ctx, instanceARN, psARN)

		doc, ok := c.inlinePolicy(ctx, instanceARN, psARN, name)
		if !ok {
			continue
		}
		for _, stmt := range doc.Statement {
			if len(stmt.Action) == 0 {
				continue
			}
			for _, action := range MatchBroadActions(stmt.Action) {
				findings = append(findings, models.PermissionSetFinding{
					PermissionSet:    name,
					PermissionSetARN: psARN,
					Action:           action,
					Effect:           stmt.EffectOrDefault(),
					Resources:        stmt.Resources(),
				})
			}
		}
	}
	return findings, nil
}

func (c *Checker) instanceARN(ctx context.Context) (string, error) {
	out, err := c.client.ListInstances(ctx, &ssoadmin.ListInstancesInput{})
	if err != nil {
		return "", herrors.New(herrors.ErrIdentityCenter, "list Identity Center instances",
			map[string]interface{}{"api_code": herrors.APICode(err)}, err)
	}
	if len(out.Instances) == 0 {
		return "", herrors.New(herrors.ErrIdentityCenter,
			"no Identity Center instance found; check the region Identity Center is deployed in", nil, nil)
	}
	return aws.ToString(out.Instances[0].InstanceArn), nil
}

func (c *Checker) permissionSets(ctx context.Context, instanceARN string) ([]string, error) {
	paginator := ssoadmin.NewListPermissionSetsPaginator(c.client, &ssoadmin.ListPermissionSetsInput{
		InstanceArn: aws.String(instanceARN),
	})
	var arns []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, herrors.New(herrors.ErrIdentityCenter, "list permission sets",
				map[string]interface{}{
					"instance_arn": instanceARN,
					"api_code":     herrors.APICode(err),
				}, fmt.Errorf("ListPermissionSets page: %w", err))
		}
		arns = append(arns, page.PermissionSets...)
	}
	return arns, nil
}

// permissionSetName falls back to the last ARN segment when the permission
// set cannot be described.
func (c *Checker) permissionSetName(ctx context.Context, instanceARN, psARN string) string {
	out, err := c.client.DescribePermissionSet(ctx, &ssoadmin.DescribePermissionSetInput{
		InstanceArn:      aws.String(instanceARN),
		PermissionSetArn: aws.String(psARN),
	})
	if err == nil && out.PermissionSet != nil && aws.ToString(out.PermissionSet.Name) != "" {
		return aws.ToString(out.PermissionSet.Name)
	}
	if err != nil {
		c.logger.Warn("Failed to describe permission set",
			zap.String("operation", "describe_permission_set"),
			zap.String("permission_set_arn", psARN),
			zap.String("api_code", herrors.APICode(err)),
			zap.Error(err),
		)
	}
	return psARN[strings.LastIndex(psARN, "/")+1:]
}

// inlinePolicy returns the parsed inline policy, or false when the
// permission set has none or it cannot be read.
func (c *Checker) inlinePolicy(ctx context.Context, instanceARN, psARN, name string) (*PolicyDocument, bool) {
	out, err := c.client.GetInlinePolicyForPermissionSet(ctx, &ssoadmin.GetInlinePolicyForPermissionSetInput{
		InstanceArn:      aws.String(instanceARN),
		PermissionSetArn: aws.String(psARN),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if !stderrors.As(err, &notFound) {
			c.logger.Warn("Failed to get inline policy",
				zap.String("operation", "get_inline_policy"),
				zap.String("permission_set", name),
				zap.String("api_code", herrors.APICode(err)),
				zap.Error(err),
			)
		}
		return nil, false
	}

	raw := aws.ToString(out.InlinePolicy)
	if raw == "" {
		return nil, false
	}
	doc, err := ParsePolicy(raw)
	if err != nil {
		c.logger.Warn("Inline policy is not valid JSON",
			zap.String("operation", "parse_inline_policy"),
			zap.String("permission_set", name),
			zap.Error(err),
		)
		return nil, false
	}
	return doc, true
}
