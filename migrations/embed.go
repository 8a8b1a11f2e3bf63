// Package migrations carries Vigil's schema migration SQL inside the
// binary, so deployments never depend on loose .sql files. Importing it
// for side effects wires the embedded files into the database package:
//
//	import _ "github.com/nerrad567/vigil-core/migrations"
package migrations

import (
	"embed"

	"github.com/nerrad567/vigil-core/internal/infrastructure/database"
)

//go:embed *.sql
var files embed.FS

func init() {
	database.MigrationsFS = files
	// The embedded paths have no directory prefix.
	database.MigrationsDir = "."
}
