package network

import (
	"context"
	"fmt"
	"iter"

	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/models"
)

// EC2Fetcher implements reachability.Fetcher on top of the EC2 API.
// Every range over one of its sequences starts a fresh paginator, so the
// sequences can be consumed more than once.
type EC2Fetcher struct {
	client EC2API
}

// NewEC2Fetcher returns a fetcher bound to client's region.
func NewEC2Fetcher(client EC2API) *EC2Fetcher {
	return &EC2Fetcher{client: client}
}

// RouteTables yields every route table in the region, page by page.
func (f *EC2Fetcher) RouteTables(ctx context.Context) iter.Seq2[models.RouteTable, error] {
	return func(yield func(models.RouteTable, error) bool) {
		paginator := ec2svc.NewDescribeRouteTablesPaginator(f.client, &ec2svc.DescribeRouteTablesInput{})
		for paginator.HasMorePages() {
			if err := ctx.Err(); err != nil {
				yield(models.RouteTable{}, err)
				return
			}
			page, err := paginator.NextPage(ctx)
			if err != nil {
				yield(models.RouteTable{}, fmt.Errorf("DescribeRouteTables page: %w", err))
				return
			}
			for _, rt := range page.RouteTables {
				if !yield(toRouteTable(rt), nil) {
					return
				}
			}
		}
	}
}

// Instances yields every instance in the region, including terminated ones.
// Exclusion by state is the classifier's decision.
func (f *EC2Fetcher) Instances(ctx context.Context) iter.Seq2[models.Instance, error] {
	return func(yield func(models.Instance, error) bool) {
		paginator := ec2svc.NewDescribeInstancesPaginator(f.client, &ec2svc.DescribeInstancesInput{})
		for paginator.HasMorePages() {
			if err := ctx.Err(); err != nil {
				yield(models.Instance{}, err)
				return
			}
			page, err := paginator.NextPage(ctx)
			if err != nil {
				yield(models.Instance{}, fmt.Errorf("DescribeInstances page: %w", err))
				return
			}
			for _, reservation := range page.Reservations {
				for _, inst := range reservation.Instances {
					if !yield(toInstance(inst), nil) {
						return
					}
				}
			}
		}
	}
}
