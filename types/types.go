// Package types has the data types shared by the candidate source, the
// resolvers and the storage layers.
package types

import (
	"strings"
	"time"
)

// NoIPAddress is stored in place of a sliver address that hasn't been
// assigned yet.
const NoIPAddress = "off"

// SliverTool is one instance of a tool running on a specific server at a
// site. The IPv4 and IPv6 status are tracked independently.
type SliverTool struct {
	ToolID   string `json:"tool_id"`
	SiteID   string `json:"site_id"`
	SliceID  string `json:"slice_id"`
	ServerID string `json:"server_id"`
	FQDN     string `json:"fqdn"`

	SliverIPv4 string `json:"sliver_ipv4"`
	SliverIPv6 string `json:"sliver_ipv6"`
	StatusIPv4 Status `json:"status_ipv4"`
	StatusIPv6 Status `json:"status_ipv6"`

	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	City      string   `json:"city,omitempty"`
	Country   string   `json:"country,omitempty"`
	Metro     []string `json:"metro,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Status returns the health status for the address family. An unset
// family is never online.
func (st *SliverTool) Status(af AddressFamily) Status {
	switch af {
	case IPv4:
		return st.StatusIPv4
	case IPv6:
		return st.StatusIPv6
	default:
		return StatusOffline
	}
}

// IsOnline reports if the sliver is eligible for the address family.
// The recorded status is authoritative; the address itself isn't checked.
func (st *SliverTool) IsOnline(af AddressFamily) bool {
	return st.Status(af) == StatusOnline
}

// Address returns the sliver address for the family, or NoIPAddress.
func (st *SliverTool) Address(af AddressFamily) string {
	var ip string
	switch af {
	case IPv4:
		ip = st.SliverIPv4
	case IPv6:
		ip = st.SliverIPv6
	}
	if len(ip) == 0 {
		return NoIPAddress
	}
	return ip
}

// InMetro reports if one of the sliver's metro codes matches.
func (st *SliverTool) InMetro(metro string) bool {
	for _, m := range st.Metro {
		if strings.EqualFold(m, metro) {
			return true
		}
	}
	return false
}

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
