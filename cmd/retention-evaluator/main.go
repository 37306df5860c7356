// Command retention-evaluator is the AWS Lambda handler behind the
// CloudWatch Logs retention Config rule. It marks every log group without a
// retention policy NON_COMPLIANT.
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
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/logger"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/retention"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/version"
)

func main() {
	eval, err := newEvaluator(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	lambda.Start(eval.Handle)
}

func newEvaluator(ctx context.Context) (*retention.Evaluator, error) {
	_, awsCfg, err := loadRuntime(ctx)
	if err != nil {
		return nil, err
	}

	logger.For("lambda").Info("Retention evaluator starting",
		zap.String("version", version.Short()),
		zap.String("region", awsCfg.Region),
	)
	return retention.NewEvaluatorFromConfig(awsCfg, logger.For("retention")), nil
}

// loadRuntime reads the HYGIENE_* environment, starts logging and resolves
// the Lambda's AWS configuration with the configured retry budget.
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
