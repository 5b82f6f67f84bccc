// Package pg bootstraps PostgreSQL access with pgx/v5: a retrying pool
// constructor, goose migrations applied from an fs.FS, a health check closure
// and helpers that classify driver errors by SQLSTATE.
//
//	var cfg pg.Config
//	_ = env.Parse(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	if err := pg.Migrate(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg, log); err != nil {
//	    return err
//	}
package pg
