package network

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/models"
)

// toRouteTable converts an SDK route table to the internal model.
func toRouteTable(rt ec2types.RouteTable) models.RouteTable {
	out := models.RouteTable{
		RouteTableID: aws.ToString(rt.RouteTableId),
		VpcID:        aws.ToString(rt.VpcId),
	}
	for _, r := range rt.Routes {
		out.Routes = append(out.Routes, models.Route{
			DestinationCIDR:        aws.ToString(r.DestinationCidrBlock),
			DestinationIPv6CIDR:    aws.ToString(r.DestinationIpv6CidrBlock),
			GatewayID:              aws.ToString(r.GatewayId),
			NatGatewayID:           aws.ToString(r.NatGatewayId),
			TransitGatewayID:       aws.ToString(r.TransitGatewayId),
			VpcPeeringConnectionID: aws.ToString(r.VpcPeeringConnectionId),
			State:                  string(r.State),
		})
	}
	for _, a := range rt.Associations {
		out.Associations = append(out.Associations, models.RouteTableAssociation{
			SubnetID: aws.ToString(a.SubnetId),
			Main:     aws.ToBool(a.Main),
		})
	}
	return out
}

// toInstance converts an SDK EC2 instance to the internal model.
func toInstance(inst ec2types.Instance) models.Instance {
	var state models.InstanceState
	if inst.State != nil {
		state = models.InstanceState(inst.State.Name)
	}

	var profileARN string
	if inst.IamInstanceProfile != nil {
		profileARN = aws.ToString(inst.IamInstanceProfile.Arn)
	}

	out := models.Instance{
		InstanceID:            aws.ToString(inst.InstanceId),
		State:                 state,
		VpcID:                 aws.ToString(inst.VpcId),
		SubnetID:              aws.ToString(inst.SubnetId),
		PrivateIP:             aws.ToString(inst.PrivateIpAddress),
		PublicIP:              aws.ToString(inst.PublicIpAddress),
		PublicDNS:             aws.ToString(inst.PublicDnsName),
		IAMInstanceProfileARN: profileARN,
	}
	for _, t := range inst.Tags {
		out.Tags = append(out.Tags, models.Tag{Key: aws.ToString(t.Key), Value: aws.ToString(t.Value)})
	}
	for _, sg := range inst.SecurityGroups {
		out.SecurityGroups = append(out.SecurityGroups, aws.ToString(sg.GroupName))
	}
	return out
}
