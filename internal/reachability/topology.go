// Package reachability decides whether EC2 instances are reachable from the
// public internet by resolving each instance's effective route table and
// inspecting its default routes.
//
// Everything in this package except RegionScanner is pure computation over
// already-fetched data and performs no I/O.
package reachability

import "github.com/pankaj-dahiya-devops/aws-hygiene/internal/models"

// Topology indexes one region's route tables by ownership:
//
//   - subnet ID → explicitly associated route table
//   - VPC ID    → main route table
//
// A Topology is immutable once built and may be read from multiple
// goroutines. It must never be shared across regions.
type Topology struct {
	subnetTables map[string]*models.RouteTable
	mainTables   map[string]*models.RouteTable
	size         int
}

// BuildTopology indexes tables. It never fails: conflicting associations
// resolve last-write-wins and missing ones simply produce lookup misses.
// The input slice is copied so later mutation by the caller cannot leak into
// the topology.
func BuildTopology(tables []models.RouteTable) *Topology {
	owned := make([]models.RouteTable, len(tables))
	copy(owned, tables)

	t := &Topology{
		subnetTables: make(map[string]*models.RouteTable),
		mainTables:   make(map[string]*models.RouteTable),
		size:         len(owned),
	}
	for i := range owned {
		rt := &owned[i]
		for _, assoc := range rt.Associations {
			if assoc.Main {
				t.mainTables[rt.VpcID] = rt
			}
			if assoc.SubnetID != "" {
				t.subnetTables[assoc.SubnetID] = rt
			}
		}
	}
	return t
}

// Resolve returns the route table that governs traffic for an instance in
// subnetID within vpcID, or nil when neither an explicit subnet association
// nor a main table is known.
func (t *Topology) Resolve(subnetID, vpcID string) *models.RouteTable {
	if t == nil {
		return nil
	}
	return effectiveRouteTable(t.subnetTables, t.mainTables, subnetID, vpcID)
}

// Len returns the number of route tables the topology was built from.
func (t *Topology) Len() int {
	if t == nil {
		return 0
	}
	return t.size
}

// effectiveRouteTable applies AWS routing precedence: an explicit subnet
// association always overrides the VPC's main table. The order of the two
// lookups must not change.
func effectiveRouteTable(subnetTables, mainTables map[string]*models.RouteTable, subnetID, vpcID string) *models.RouteTable {
	if subnetID != "" {
		if rt, ok := subnetTables[subnetID]; ok {
			return rt
		}
	}
	if vpcID != "" {
		if rt, ok := mainTables[vpcID]; ok {
			return rt
		}
	}
	return nil
}
