package network

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"

	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/models"
)

func TestToRouteTable(t *testing.T) {
	got := toRouteTable(ec2types.RouteTable{
		RouteTableId: aws.String("rtb-1"),
		VpcId:        aws.String("vpc-1"),
		Routes: []ec2types.Route{
			{DestinationCidrBlock: aws.String("10.0.0.0/16"), GatewayId: aws.String("local"), State: ec2types.RouteStateActive},
			{DestinationIpv6CidrBlock: aws.String("::/0"), GatewayId: aws.String("igw-1"), State: ec2types.RouteStateBlackhole},
			{DestinationCidrBlock: aws.String("0.0.0.0/0"), NatGatewayId: aws.String("nat-1")},
			{DestinationCidrBlock: aws.String("172.16.0.0/12"), TransitGatewayId: aws.String("tgw-1")},
			{DestinationCidrBlock: aws.String("192.168.0.0/16"), VpcPeeringConnectionId: aws.String("pcx-1")},
		},
		Associations: []ec2types.RouteTableAssociation{
			{Main: aws.Bool(true)},
			{SubnetId: aws.String("subnet-1"), Main: aws.Bool(false)},
			{GatewayId: aws.String("igw-1")},
		},
	})

	assert.Equal(t, models.RouteTable{
		RouteTableID: "rtb-1",
		VpcID:        "vpc-1",
		Routes: []models.Route{
			{DestinationCIDR: "10.0.0.0/16", GatewayID: "local", State: "active"},
			{DestinationIPv6CIDR: "::/0", GatewayID: "igw-1", State: "blackhole"},
			{DestinationCIDR: "0.0.0.0/0", NatGatewayID: "nat-1"},
			{DestinationCIDR: "172.16.0.0/12", TransitGatewayID: "tgw-1"},
			{DestinationCIDR: "192.168.0.0/16", VpcPeeringConnectionID: "pcx-1"},
		},
		Associations: []models.RouteTableAssociation{
			{Main: true},
			{SubnetID: "subnet-1"},
			{},
		},
	}, got)
}

func TestToInstance(t *testing.T) {
	got := toInstance(ec2types.Instance{
		InstanceId:         aws.String("i-1"),
		State:              &ec2types.InstanceState{Name: ec2types.InstanceStateNameStopped},
		VpcId:              aws.String("vpc-1"),
		SubnetId:           aws.String("subnet-1"),
		PrivateIpAddress:   aws.String("10.0.0.5"),
		PublicIpAddress:    aws.String("3.3.3.3"),
		PublicDnsName:      aws.String("ec2-3-3-3-3.compute-1.amazonaws.com"),
		IamInstanceProfile: &ec2types.IamInstanceProfile{Arn: aws.String("arn:aws:iam::1:instance-profile/app")},
		Tags: []ec2types.Tag{
			{Key: aws.String("team"), Value: aws.String("core")},
			{Key: aws.String("Name"), Value: aws.String("api")},
		},
		SecurityGroups: []ec2types.GroupIdentifier{
			{GroupId: aws.String("sg-1"), GroupName: aws.String("default")},
			{GroupId: aws.String("sg-2"), GroupName: aws.String("api")},
		},
	})

	assert.Equal(t, models.Instance{
		InstanceID:            "i-1",
		State:                 models.InstanceStateStopped,
		VpcID:                 "vpc-1",
		SubnetID:              "subnet-1",
		PrivateIP:             "10.0.0.5",
		PublicIP:              "3.3.3.3",
		PublicDNS:             "ec2-3-3-3-3.compute-1.amazonaws.com",
		Tags:                  []models.Tag{{Key: "team", Value: "core"}, {Key: "Name", Value: "api"}},
		SecurityGroups:        []string{"default", "api"},
		IAMInstanceProfileARN: "arn:aws:iam::1:instance-profile/app",
	}, got)
}

func TestToInstance_NilFields(t *testing.T) {
	got := toInstance(ec2types.Instance{InstanceId: aws.String("i-2")})
	assert.Equal(t, models.Instance{InstanceID: "i-2"}, got)
}
