// Package fqdn annotates sliver names with the address family a client
// asked for, so the name resolves to only that family's address.
package fqdn

import (
	"regexp"
	"strings"

	"github.com/eumel8/mlab-ns/types"
)

// DefaultMachinePattern matches the machine part of a sliver name.
const DefaultMachinePattern = `^mlab[1-4]$`

// Rewriter rewrites names whose first label has a component matching
// the machine pattern: ndt-iupui-mlab4-lga06.example.org becomes
// ndt-iupui-mlab4v4-lga06.example.org for IPv4.
type Rewriter struct {
	machine *regexp.Regexp
}

// NewRewriter compiles the machine pattern; empty uses the default.
func NewRewriter(pattern string) (*Rewriter, error) {
	if len(pattern) == 0 {
		pattern = DefaultMachinePattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Rewriter{machine: re}, nil
}

var defaultRewriter = &Rewriter{machine: regexp.MustCompile(DefaultMachinePattern)}

// Rewrite uses the default machine pattern.
func Rewrite(name string, af types.AddressFamily) string {
	return defaultRewriter.Rewrite(name, af)
}

// Rewrite returns name with the family suffix added to the machine
// component. Without a family, or without a matching component, name is
// returned as is.
func (r *Rewriter) Rewrite(name string, af types.AddressFamily) string {
	var suffix string
	switch af {
	case types.IPv4:
		suffix = "v4"
	case types.IPv6:
		suffix = "v6"
	default:
		return name
	}

	label, rest, _ := strings.Cut(name, ".")
	parts := strings.Split(label, "-")
	for i, p := range parts {
		if r.machine.MatchString(p) {
			parts[i] = p + suffix
			label = strings.Join(parts, "-")
			if len(rest) == 0 {
				return label
			}
			return label + "." + rest
		}
	}

	return name
}
