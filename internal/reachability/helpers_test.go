package reachability

import (
	"context"
	"iter"
	"sync"

	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/models"
)

// ── fixtures ─────────────────────────────────────────────────────────────────

func igwRoute(gw string) models.Route {
	return models.Route{DestinationCIDR: "0.0.0.0/0", GatewayID: gw, State: "active"}
}

func natRoute(nat string) models.Route {
	return models.Route{DestinationCIDR: "0.0.0.0/0", NatGatewayID: nat, GatewayID: nat, State: "active"}
}

func localRoute() models.Route {
	return models.Route{DestinationCIDR: "10.0.0.0/16", GatewayID: "local", State: "active"}
}

func mainTable(id, vpc string, routes ...models.Route) models.RouteTable {
	return models.RouteTable{
		RouteTableID: id,
		VpcID:        vpc,
		Routes:       routes,
		Associations: []models.RouteTableAssociation{{Main: true}},
	}
}

func subnetTable(id, vpc string, subnets []string, routes ...models.Route) models.RouteTable {
	rt := models.RouteTable{RouteTableID: id, VpcID: vpc, Routes: routes}
	for _, s := range subnets {
		rt.Associations = append(rt.Associations, models.RouteTableAssociation{SubnetID: s})
	}
	return rt
}

// publicInstance returns a running instance with a public IP in vpc/subnet.
func publicInstance(id, vpc, subnet string, overrides ...func(*models.Instance)) models.Instance {
	inst := models.Instance{
		InstanceID:     id,
		State:          models.InstanceStateRunning,
		VpcID:          vpc,
		SubnetID:       subnet,
		PrivateIP:      "10.0.1.10",
		PublicIP:       "1.2.3.4",
		PublicDNS:      "ec2-1-2-3-4.compute-1.amazonaws.com",
		Tags:           []models.Tag{{Key: "env", Value: "prod"}, {Key: "Name", Value: "web-1"}},
		SecurityGroups: []string{"web", "ssh"},
	}
	for _, fn := range overrides {
		fn(&inst)
	}
	return inst
}

// ── test double ──────────────────────────────────────────────────────────────

// stubFetcher serves fixed route tables and instances, optionally failing
// after a given number of items. It records the order in which items were
// pulled so tests can assert topology-before-classification.
type stubFetcher struct {
	tables    []models.RouteTable
	instances []models.Instance

	tablesErr    error
	instancesErr error

	mu    sync.Mutex
	calls []string
}

func (f *stubFetcher) record(event string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, event)
}

func (f *stubFetcher) RouteTables(ctx context.Context) iter.Seq2[models.RouteTable, error] {
	return func(yield func(models.RouteTable, error) bool) {
		for _, rt := range f.tables {
			if err := ctx.Err(); err != nil {
				yield(models.RouteTable{}, err)
				return
			}
			f.record("rtb:" + rt.RouteTableID)
			if !yield(rt, nil) {
				return
			}
		}
		if f.tablesErr != nil {
			yield(models.RouteTable{}, f.tablesErr)
		}
	}
}

func (f *stubFetcher) Instances(ctx context.Context) iter.Seq2[models.Instance, error] {
	return func(yield func(models.Instance, error) bool) {
		for _, inst := range f.instances {
			if err := ctx.Err(); err != nil {
				yield(models.Instance{}, err)
				return
			}
			f.record("inst:" + inst.InstanceID)
			if !yield(inst, nil) {
				return
			}
		}
		if f.instancesErr != nil {
			yield(models.Instance{}, f.instancesErr)
		}
	}
}

// fetchersByRegion builds a FetcherFactory over a fixed region map. Unknown
// regions get an empty fetcher.
func fetchersByRegion(m map[string]*stubFetcher) FetcherFactory {
	return func(region string) Fetcher {
		if f, ok := m[region]; ok {
			return f
		}
		return &stubFetcher{}
	}
}
