// Package retention checks CloudWatch Logs log groups for a retention
// policy. It backs the AWS Config custom rule, the compliance-change
// notifier and the local no-retention audit.
package retention

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	configsvc "github.com/aws/aws-sdk-go-v2/service/configservice"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// LogsAPI covers the CloudWatch Logs operations used by this package.
// Satisfies cloudwatchlogs.DescribeLogGroupsAPIClient for the SDK v2 paginator.
type LogsAPI interface {
	DescribeLogGroups(
		ctx context.Context,
		params *cloudwatchlogs.DescribeLogGroupsInput,
		optFns ...func(*cloudwatchlogs.Options),
	) (*cloudwatchlogs.DescribeLogGroupsOutput, error)
}

// ConfigAPI covers the AWS Config operations used to report evaluations.
type ConfigAPI interface {
	PutEvaluations(
		ctx context.Context,
		params *configsvc.PutEvaluationsInput,
		optFns ...func(*configsvc.Options),
	) (*configsvc.PutEvaluationsOutput, error)
}

// SNSAPI covers the SNS operations used to send notifications.
type SNSAPI interface {
	Publish(
		ctx context.Context,
		params *sns.PublishInput,
		optFns ...func(*sns.Options),
	) (*sns.PublishOutput, error)
}

// NewLogsClient is the production LogsAPI constructor.
func NewLogsClient(cfg aws.Config) LogsAPI {
	return cloudwatchlogs.NewFromConfig(cfg)
}
