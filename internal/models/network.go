package models

// ---------------------------------------------------------------------------
// EC2 routing models (collected by the network provider, consumed by the
// reachability classifier)
// ---------------------------------------------------------------------------

// InstanceState is the EC2 lifecycle state name of an instance.
type InstanceState string

const (
	InstanceStatePending      InstanceState = "pending"
	InstanceStateRunning      InstanceState = "running"
	InstanceStateStopping     InstanceState = "stopping"
	InstanceStateStopped      InstanceState = "stopped"
	InstanceStateShuttingDown InstanceState = "shutting-down"
	InstanceStateTerminated   InstanceState = "terminated"
)

// Route is a single entry of a VPC route table. Exactly one of the
// destination fields is normally set; the target fields mirror the EC2 API
// and are empty when the route points elsewhere.
type Route struct {
	DestinationCIDR        string `json:"destination_cidr,omitempty"`
	DestinationIPv6CIDR    string `json:"destination_ipv6_cidr,omitempty"`
	GatewayID              string `json:"gateway_id,omitempty"`
	NatGatewayID           string `json:"nat_gateway_id,omitempty"`
	TransitGatewayID       string `json:"transit_gateway_id,omitempty"`
	VpcPeeringConnectionID string `json:"vpc_peering_connection_id,omitempty"`

	// State is "active" or "blackhole".
	State string `json:"state,omitempty"`
}

// RouteTableAssociation links a route table to a subnet, or marks it as the
// main (implicit) table of its VPC. A gateway association has neither set.
type RouteTableAssociation struct {
	SubnetID string `json:"subnet_id,omitempty"`
	Main     bool   `json:"main"`
}

// RouteTable is a collected VPC route table with its routes and associations.
type RouteTable struct {
	RouteTableID string                  `json:"route_table_id"`
	VpcID        string                  `json:"vpc_id"`
	Routes       []Route                 `json:"routes"`
	Associations []RouteTableAssociation `json:"associations"`
}

// Tag is an EC2 resource tag. Tags are kept as an ordered slice so that
// "first match" lookups are deterministic.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Instance is a collected EC2 instance, reduced to the fields the
// reachability classifier and its output rows need.
type Instance struct {
	InstanceID string        `json:"instance_id"`
	State      InstanceState `json:"state"`

	// VpcID and SubnetID are empty for instances that are not placed in a
	// VPC subnet.
	VpcID    string `json:"vpc_id,omitempty"`
	SubnetID string `json:"subnet_id,omitempty"`

	PrivateIP string `json:"private_ip,omitempty"`
	PublicIP  string `json:"public_ip,omitempty"`
	PublicDNS string `json:"public_dns,omitempty"`

	Tags []Tag `json:"tags,omitempty"`

	// SecurityGroups holds security group display names in API order.
	SecurityGroups []string `json:"security_groups,omitempty"`

	IAMInstanceProfileARN string `json:"iam_instance_profile_arn,omitempty"`
}
