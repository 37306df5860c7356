// Package network adapts the EC2 API to the reachability package: it streams
// route tables and instances for one region as lazy, paginated sequences.
package network

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/reachability"
)

// EC2API covers the EC2 operations required for reachability scanning.
// A *ec2.Client satisfies it, and so do ec2.DescribeRouteTablesAPIClient
// and ec2.DescribeInstancesAPIClient, which enables the SDK v2 paginators.
type EC2API interface {
	DescribeRouteTables(
		ctx context.Context,
		params *ec2svc.DescribeRouteTablesInput,
		optFns ...func(*ec2svc.Options),
	) (*ec2svc.DescribeRouteTablesOutput, error)

	DescribeInstances(
		ctx context.Context,
		params *ec2svc.DescribeInstancesInput,
		optFns ...func(*ec2svc.Options),
	) (*ec2svc.DescribeInstancesOutput, error)
}

// ClientFactory creates a region-scoped EC2API from an aws.Config.
type ClientFactory func(cfg aws.Config) EC2API

// NewEC2Client is the production ClientFactory.
func NewEC2Client(cfg aws.Config) EC2API {
	return ec2svc.NewFromConfig(cfg)
}

// NewFetcherFactory returns a reachability.FetcherFactory that builds an
// EC2Fetcher for each region of profile using real SDK clients.
func NewFetcherFactory(provider common.AWSClientProvider, profile *common.ProfileConfig) reachability.FetcherFactory {
	return NewFetcherFactoryWithClients(provider, profile, NewEC2Client)
}

// NewFetcherFactoryWithClients is NewFetcherFactory with an injectable
// client factory. Pass a stub factory in tests.
func NewFetcherFactoryWithClients(provider common.AWSClientProvider, profile *common.ProfileConfig, f ClientFactory) reachability.FetcherFactory {
	return func(region string) reachability.Fetcher {
		return NewEC2Fetcher(f(provider.ConfigForRegion(profile, region)))
	}
}
