// Command retention-notifier is the AWS Lambda handler that forwards Config
// rule compliance changes from EventBridge to an SNS topic.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"go.uber.org/zap"

	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/config"
	herrors "github.com/pankaj-dahiya-devops/aws-hygiene/internal/errors"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/logger"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/retention"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/version"
)

func main() {
	n, err := newNotifier(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	lambda.Start(n.Handle)
}

func newNotifier(ctx context.Context) (*retention.Notifier, error) {
	cfg, awsCfg, err := loadRuntime(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.Retention.TopicARN == "" {
		return nil, herrors.New(herrors.ErrConfigInvalid, "TOPIC_ARN (or HYGIENE_RETENTION_TOPIC_ARN) must be set",
			map[string]interface{}{"config_key": "retention.topic_arn"}, nil)
	}

	logger.For("lambda").Info("Retention notifier starting",
		zap.String("version", version.Short()),
		zap.String("topic", cfg.Retention.TopicARN),
	)
	return retention.NewNotifierFromConfig(awsCfg, cfg.Retention.TopicARN, cfg.Retention.SubjectPrefix, logger.For("retention")), nil
}

func loadRuntime(ctx context.Context) (*config.Config, aws.Config, error) {
	loader := config.NewLoader("")
	logger.Bootstrap(loader.LogLevel())

	cfg, err := loader.Load()
	if err != nil {
		return nil, aws.Config{}, err
	}
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		return nil, aws.Config{}, fmt.Errorf("initialise logger: %w", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRetryMaxAttempts(cfg.Scan.MaxAttempts))
	if err != nil {
		return nil, aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return cfg, awsCfg, nil
}
