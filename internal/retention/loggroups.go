package retention

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	logstypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/models"
)

// ListLogGroups pages through every log group visible to client and calls fn
// for each one. Iteration stops at the first error returned by fn.
func ListLogGroups(ctx context.Context, client LogsAPI, region string, fn func(models.LogGroup) error) error {
	paginator := cloudwatchlogs.NewDescribeLogGroupsPaginator(client, &cloudwatchlogs.DescribeLogGroupsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("DescribeLogGroups page: %w", err)
		}
		for _, g := range page.LogGroups {
			if err := fn(toLogGroup(g, region)); err != nil {
				return err
			}
		}
	}
	return nil
}

// NoRetentionLogGroups returns the log groups in client's region that never
// expire.
func NoRetentionLogGroups(ctx context.Context, client LogsAPI, region string) ([]models.LogGroup, error) {
	var groups []models.LogGroup
	err := ListLogGroups(ctx, client, region, func(g models.LogGroup) error {
		if !g.HasRetention() {
			groups = append(groups, g)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// FindLogGroup looks up the log group named exactly name. It returns nil
// when no such group exists; a prefix match on a longer name does not count.
func FindLogGroup(ctx context.Context, client LogsAPI, name string) (*models.LogGroup, error) {
	out, err := client.DescribeLogGroups(ctx, &cloudwatchlogs.DescribeLogGroupsInput{
		LogGroupNamePrefix: aws.String(name),
		Limit:              aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("describe log group %q: %w", name, err)
	}
	for _, g := range out.LogGroups {
		if aws.ToString(g.LogGroupName) == name {
			lg := toLogGroup(g, "")
			return &lg, nil
		}
	}
	return nil, nil
}

func toLogGroup(g logstypes.LogGroup, region string) models.LogGroup {
	return models.LogGroup{
		Name:            aws.ToString(g.LogGroupName),
		Region:          region,
		RetentionInDays: g.RetentionInDays,
		StoredBytes:     aws.ToInt64(g.StoredBytes),
	}
}
