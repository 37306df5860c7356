package reachability

import (
	"strings"

	herrors "github.com/pankaj-dahiya-devops/aws-hygiene/internal/errors"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/models"
)

// Classify decides whether inst is reachable from the public internet using
// the routing in topo.
//
// It returns (nil, nil) when the instance is excluded: shutting down or
// terminated, no public IPv4 address, or an effective route table without an
// Internet Gateway default route. Exclusion is policy, not an error.
//
// An error is returned only for malformed input on an instance that passed
// the state and public IP filters. Classify is a pure function of its
// arguments.
func Classify(inst models.Instance, topo *Topology) (*models.ClassificationRow, error) {
	if inst.State == models.InstanceStateShuttingDown || inst.State == models.InstanceStateTerminated {
		return nil, nil
	}
	if inst.PublicIP == "" {
		return nil, nil
	}
	if err := validateInstance(inst); err != nil {
		return nil, err
	}

	rt := topo.Resolve(inst.SubnetID, inst.VpcID)
	if !IsPublic(rt) {
		return nil, nil
	}

	return &models.ClassificationRow{
		InstanceID:            inst.InstanceID,
		Name:                  nameTag(inst.Tags),
		State:                 string(inst.State),
		VpcID:                 inst.VpcID,
		SubnetID:              inst.SubnetID,
		PrivateIP:             inst.PrivateIP,
		PublicIP:              inst.PublicIP,
		PublicDNS:             inst.PublicDNS,
		SecurityGroups:        strings.Join(inst.SecurityGroups, ","),
		IAMInstanceProfileARN: inst.IAMInstanceProfileARN,
		RouteTableID:          rt.RouteTableID,
	}, nil
}

// nameTag returns the value of the first tag whose key is exactly "Name".
func nameTag(tags []models.Tag) string {
	for _, t := range tags {
		if t.Key == "Name" {
			return t.Value
		}
	}
	return ""
}

// validateInstance rejects identifiers that cannot have come from EC2.
// Absent VPC and subnet IDs are allowed.
func validateInstance(inst models.Instance) error {
	switch {
	case inst.InstanceID == "":
		return herrors.New(herrors.ErrMalformedInput, "instance has no ID", nil, nil)
	case inst.VpcID != "" && !strings.HasPrefix(inst.VpcID, "vpc-"):
		return herrors.New(herrors.ErrMalformedInput, "invalid VPC ID",
			map[string]interface{}{
				"instance_id": inst.InstanceID,
				"vpc_id":      inst.VpcID,
			}, nil)
	case inst.SubnetID != "" && !strings.HasPrefix(inst.SubnetID, "subnet-"):
		return herrors.New(herrors.ErrMalformedInput, "invalid subnet ID",
			map[string]interface{}{
				"instance_id": inst.InstanceID,
				"subnet_id":   inst.SubnetID,
			}, nil)
	}
	return nil
}
