package nsdb

import (
	_ "embed"
	"strings"
)

//go:embed schema.sql
var schema string

// SchemaStatements returns the table definitions one statement at a time.
func SchemaStatements() []string {
	var r []string
	for _, stmt := range strings.Split(schema, ";") {
		if s := strings.TrimSpace(stmt); len(s) > 0 {
			r = append(r, s)
		}
	}
	return r
}
