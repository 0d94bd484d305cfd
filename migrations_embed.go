package main

import (
	"context"
	"embed"
	"io/fs"
	"sort"

	"campus-canteen/db"
	"campus-canteen/logger"

	"github.com/pkg/errors"
)

// Embed migrations into the binary so `canteen migrate` works
// regardless of the current working directory.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

func applyMigrations(ctx context.Context) error {
	log := logger.GetLogger()
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return errors.Wrap(err, "list migrations")
	}
	sort.Strings(names)
	for _, name := range names {
		sqlBytes, err := migrationsFS.ReadFile(name)
		if err != nil {
			return errors.Wrapf(err, "read migration %s", name)
		}
		if _, err := db.Pool.Exec(ctx, string(sqlBytes)); err != nil {
			return errors.Wrapf(err, "apply migration %s", name)
		}
		log.Infof("migration %s applied", name)
	}
	return nil
}
