package main

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/avast/retry-go/v4"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/venicegeo/bf-scene-catalog/catalog"
	"github.com/venicegeo/bf-scene-catalog/schema"
	"github.com/venicegeo/bf-scene-catalog/util"
)

const pzPostgresService = "pz-postgres"

const (
	connectAttempts = 2
	connectDelay    = 5 * time.Second
)

//getConnectionString finds the catalog database in DATABASE_URL, then in the
//pz-postgres service of VCAP_SERVICES, then in the PG* variables.
func getConnectionString(ctx util.LogContext) (string, error) {
	if connStr := os.Getenv(util.DATABASE_URL); connStr != "" {
		return connStr, nil
	}
	if raw := os.Getenv(util.VCAP_SERVICES); raw != "" {
		util.LogInfo(ctx, "No DB connection found in DATABASE_URL, checking VCAP_SERVICES")
		services, err := util.ParseVcapServices([]byte(raw))
		if err != nil {
			return "", errors.Wrap(util.ErrConnectivity, "no valid VCAP_SERVICES found: "+err.Error())
		}
		connStr, err := services.DatabaseURL(pzPostgresService)
		if err != nil {
			return "", errors.Wrap(util.ErrConnectivity, err.Error())
		}
		return connStr, nil
	}
	util.LogInfo(ctx, "No DATABASE_URL or VCAP_SERVICES, using PG* variables")
	cfg := util.GetDBConfig()
	if cfg.Name == "" {
		return "", errors.Wrap(util.ErrConnectivity, "no database configured: set DATABASE_URL or PGDATABASE")
	}
	return cfg.URL(), nil
}

//getDbConnection opens a new database connection.
func getDbConnection(ctx util.LogContext) (*sql.DB, error) {
	connStr, err := getConnectionString(ctx)
	if err != nil {
		return nil, err
	}

	// XXX: pq expects SSL to be enabled if not explicitly disabled; we need to explicitly disable it
	dbURI, err := url.Parse(connStr)
	if err != nil {
		return nil, errors.Wrap(util.ErrConnectivity, "invalid database URL")
	}
	params := dbURI.Query()
	params.Set("sslmode", "disable")
	dbURI.RawQuery = params.Encode()

	util.LogInfo(ctx, fmt.Sprintf("Creating database connection at: `%s`", dbURI.Redacted()))
	var db *sql.DB
	err = retry.Do(func() error {
		conn, err := sql.Open("postgres", dbURI.String())
		if err != nil {
			return err
		}
		if err = conn.Ping(); err != nil {
			conn.Close()
			return err
		}
		db = conn
		return nil
	},
		retry.Attempts(connectAttempts),
		retry.Delay(connectDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			util.LogAlert(ctx, fmt.Sprintf("Database not reachable (attempt %d): %v", n+1, err))
		}))
	if err != nil {
		return nil, errors.Wrap(util.ErrConnectivity, err.Error())
	}
	return db, nil
}

var getDbConnectionFunc catalog.ConnectionProvider = getDbConnection

//getDBConfig describes the connection for tools that take discrete parameters
func getDBConfig(ctx util.LogContext) (util.DBConfig, error) {
	connStr, err := getConnectionString(ctx)
	if err != nil {
		return util.DBConfig{}, err
	}
	return util.ParseDBConfig(connStr)
}

//openStore connects and makes sure the catalog tables exist
func openStore(ctx util.LogContext) (*catalog.Store, error) {
	db, err := getDbConnectionFunc(ctx)
	if err != nil {
		return nil, err
	}
	store := catalog.New(db, schema.Default())
	if err = store.EnsureTables(); err != nil {
		db.Close()
		return nil, util.LogSimpleErr(ctx, "Could not create catalog tables: ", err)
	}
	return store, nil
}
