// Copyright 2016, RadiantBlue Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package util

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Environment variables
const (
	DATABASE_URL    = "DATABASE_URL"
	VCAP_SERVICES   = "VCAP_SERVICES"
	PGHOST          = "PGHOST"
	PGPORT          = "PGPORT"
	PGUSER          = "PGUSER"
	PGPASSWORD      = "PGPASSWORD"
	PGDATABASE      = "PGDATABASE"
	OGR2OGR_PATH    = "OGR2OGR_PATH"
	INGEST_SCHEDULE = "INGEST_SCHEDULE"
	SCENE_ROOT      = "SCENE_ROOT"
	LOG_LEVEL       = "LOG_LEVEL"
)

// DefaultIngestSchedule re-scans every other day at midnight
const DefaultIngestSchedule = "0 0 2-30/2 * *"

const defaultOgr2Ogr = "ogr2ogr"

// LoadEnvFile reads KEY=value pairs from a .env file into the environment.
// Variables that are already set win; a missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// GetOgr2OgrPath returns the ogr2ogr binary to use for shapefile export
func GetOgr2OgrPath() string {
	if bin, ok := os.LookupEnv(OGR2OGR_PATH); ok && bin != "" {
		return bin
	}
	return defaultOgr2Ogr
}

// GetIngestSchedule returns the cron expression driving the scheduled re-scan
func GetIngestSchedule() string {
	schedule, ok := os.LookupEnv(INGEST_SCHEDULE)
	if !ok || strings.TrimSpace(schedule) == "" {
		LogInfo(&BasicLogContext{}, "No ingest schedule in environment, using default: "+DefaultIngestSchedule)
		return DefaultIngestSchedule
	}
	return schedule
}

// GetSceneRoot returns the directory swept by the scheduled job
func GetSceneRoot() string {
	root, ok := os.LookupEnv(SCENE_ROOT)
	if !ok {
		LogAlert(&BasicLogContext{}, "Did not get a scene root from the environment. Scheduled sweeps will not find anything.")
	}
	return root
}

// DBConfig holds the discrete connection parameters of the catalog database
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// GetDBConfig builds a DBConfig from the libpq PG* variables
func GetDBConfig() DBConfig {
	cfg := DBConfig{
		Host:     os.Getenv(PGHOST),
		Port:     os.Getenv(PGPORT),
		User:     os.Getenv(PGUSER),
		Password: os.Getenv(PGPASSWORD),
		Name:     os.Getenv(PGDATABASE),
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == "" {
		cfg.Port = "5432"
	}
	return cfg
}

// ParseDBConfig splits a postgres:// URL into its parameters
func ParseDBConfig(connStr string) (DBConfig, error) {
	u, err := url.Parse(connStr)
	if err != nil {
		return DBConfig{}, errors.Wrap(err, "invalid database URL")
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return DBConfig{}, errors.Errorf("unsupported database URL scheme: %q", u.Scheme)
	}
	cfg := DBConfig{
		Host: u.Hostname(),
		Port: u.Port(),
		Name: strings.TrimPrefix(u.Path, "/"),
	}
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Password, _ = u.User.Password()
	}
	if cfg.Port == "" {
		cfg.Port = "5432"
	}
	return cfg, nil
}

// URL renders the configuration as a postgres:// connection URL
func (c DBConfig) URL() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   c.Host + ":" + c.Port,
		Path:   "/" + c.Name,
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	return u.String()
}

// OGRDescriptor renders the configuration as a GDAL/OGR PostgreSQL datasource
func (c DBConfig) OGRDescriptor() string {
	return fmt.Sprintf("PG:host=%s port=%s user=%s dbname=%s password=%s active_schema=public",
		c.Host, c.Port, c.User, c.Name, c.Password)
}
