package main

import (
	"github.com/pressly/goose"
	cli "gopkg.in/urfave/cli.v1"

	_ "github.com/venicegeo/bf-scene-catalog/migrations"
	"github.com/venicegeo/bf-scene-catalog/util"
)

func migrateDatabaseAction(*cli.Context) error {
	ctx := &util.BasicLogContext{}
	database, err := getDbConnectionFunc(ctx)
	if err != nil {
		return cli.NewExitError("Could not open database connection: "+err.Error(), 1)
	}
	defer database.Close()

	if err = goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err = goose.Run("up", database, "."); err != nil {
		return cli.NewExitError(util.LogSimpleErr(ctx, "Migration failed: ", err).Error(), 1)
	}
	return nil
}
