// Package migrations embeds the SQL schema files into the binary, so
// the bridge can migrate its database without shipping loose SQL files.
package migrations

import (
	"embed"

	"github.com/edgehaven/ngsi-bridge/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
