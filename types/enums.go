package types

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// AddressFamily selects which of the sliver addresses and health status
// a query is about.
type AddressFamily uint8

const (
	FamilyUnset AddressFamily = iota
	IPv4
	IPv6
)

// ParseAddressFamily accepts "ipv4" and "ipv6" (any case). The empty
// string is FamilyUnset.
func ParseAddressFamily(s string) (AddressFamily, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return FamilyUnset, nil
	case "ipv4", "4", "v4":
		return IPv4, nil
	case "ipv6", "6", "v6":
		return IPv6, nil
	default:
		return FamilyUnset, fmt.Errorf("unknown address family %q", s)
	}
}

func (af AddressFamily) String() string {
	switch af {
	case IPv4:
		return "ipv4"
	case IPv6:
		return "ipv6"
	default:
		return ""
	}
}

// Other returns the opposite family; FamilyUnset stays unset.
func (af AddressFamily) Other() AddressFamily {
	switch af {
	case IPv4:
		return IPv6
	case IPv6:
		return IPv4
	default:
		return FamilyUnset
	}
}

// IsSet is false for FamilyUnset.
func (af AddressFamily) IsSet() bool {
	return af == IPv4 || af == IPv6
}

func (af AddressFamily) MarshalText() ([]byte, error) {
	return []byte(af.String()), nil
}

func (af *AddressFamily) UnmarshalText(b []byte) error {
	v, err := ParseAddressFamily(string(b))
	if err != nil {
		return err
	}
	*af = v
	return nil
}

// Status is the recorded health of a sliver for one address family.
type Status uint8

const (
	StatusOffline Status = iota
	StatusOnline
)

func ParseStatus(s string) (Status, error) {
	switch s {
	case "online":
		return StatusOnline, nil
	case "offline", "":
		return StatusOffline, nil
	default:
		return StatusOffline, fmt.Errorf("unknown status %q", s)
	}
}

func (s Status) String() string {
	if s == StatusOnline {
		return "online"
	}
	return "offline"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s *Status) Scan(src interface{}) error {
	switch src := src.(type) {
	case []byte:
		return s.UnmarshalText(src)
	case string:
		return s.UnmarshalText([]byte(src))
	case nil:
		*s = StatusOffline
		return nil
	default:
		return fmt.Errorf("unsupported scan type for Status: %T", src)
	}
}

func (s Status) Value() (driver.Value, error) {
	return s.String(), nil
}
