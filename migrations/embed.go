// Package migrations holds the Postgres schema as ordered SQL files.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"
)

//go:embed *.sql
var FS embed.FS

// Migration is one forward schema step.
type Migration struct {
	Name string
	SQL  string
}

// Up returns the *.up.sql steps sorted by file name.
func Up() ([]Migration, error) {
	names, err := fs.Glob(FS, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	slices.Sort(names)

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		body, err := fs.ReadFile(FS, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		out = append(out, Migration{Name: strings.TrimSuffix(name, ".up.sql"), SQL: string(body)})
	}
	return out, nil
}
