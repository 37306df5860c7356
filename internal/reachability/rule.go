package reachability

import (
	"strings"

	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/models"
)

const (
	defaultRouteIPv4      = "0.0.0.0/0"
	defaultRouteIPv6      = "::/0"
	internetGatewayPrefix = "igw-"
	routeStateBlackhole   = "blackhole"
)

// IsPublic reports whether rt sends default traffic to an attached Internet
// Gateway, over IPv4 or IPv6.
//
// A nil table means routing could not be resolved and is treated as not
// public. NAT gateways, virtual private gateways, transit gateways, peering
// connections and blackholed routes never count.
func IsPublic(rt *models.RouteTable) bool {
	if rt == nil {
		return false
	}
	for _, r := range rt.Routes {
		if isPublicDefaultRoute(r) {
			return true
		}
	}
	return false
}

func isPublicDefaultRoute(r models.Route) bool {
	if r.DestinationCIDR != defaultRouteIPv4 && r.DestinationIPv6CIDR != defaultRouteIPv6 {
		return false
	}
	if r.State == routeStateBlackhole {
		return false
	}
	return strings.HasPrefix(r.GatewayID, internetGatewayPrefix)
}
