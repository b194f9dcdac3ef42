// Copyright 2018, RadiantBlue Technologies, Inc.
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

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

const version = "1.0.0"

var familyFlag = cli.StringFlag{
	Name:  "family, f",
	Usage: "Sensor family: S1, S2 or all",
	Value: "all",
}

var recursiveFlag = cli.BoolFlag{
	Name:  "recursive, r",
	Usage: "Descend into subdirectories",
}

var ingestFlags = []cli.Flag{
	cli.BoolFlag{Name: "update, u", Usage: "Overwrite scenes that are already cataloged"},
	cli.BoolFlag{Name: "verbose", Usage: "List rejected, updated and duplicate scenes"},
	cli.BoolFlag{Name: "dry-run", Usage: "Classify scenes without writing"},
}

var commands = cli.Commands{
	cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Launch the scene catalog webserver and scheduled sweep",
		Action:  serveAction,
	},
	cli.Command{
		Name:    "version",
		Aliases: []string{"v"},
		Usage:   "Print the version number of the scene catalog CLI",
		Action:  versionAction,
	},
	cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Update database schema",
		Action:  migrateDatabaseAction,
	},
	cli.Command{
		Name:      "sweep",
		Usage:     "Refresh the on-disk inventory tables from a scene directory",
		ArgsUsage: "DIRECTORY",
		Flags:     []cli.Flag{familyFlag, recursiveFlag},
		Action:    sweepAction,
	},
	cli.Command{
		Name:      "ingest",
		Aliases:   []string{"i"},
		Usage:     "Catalog scene archives or the archives found in directories",
		ArgsUsage: "PATH...",
		Flags:     append([]cli.Flag{recursiveFlag}, ingestFlags...),
		Action:    ingestAction,
	},
	cli.Command{
		Name:   "ingest_inventory",
		Usage:  "Catalog the readable inventory scenes that are not cataloged yet",
		Flags:  append([]cli.Flag{familyFlag}, ingestFlags...),
		Action: ingestInventoryAction,
	},
	cli.Command{
		Name:      "import_csv",
		Usage:     "Catalog the scenes listed in the scene column of a CSV file",
		ArgsUsage: "FILE",
		Flags:     ingestFlags,
		Action:    importCSVAction,
	},
	cli.Command{
		Name:      "cleanup",
		Usage:     "Remove catalog rows whose archive is gone",
		ArgsUsage: "[TABLE...]",
		Action:    cleanupAction,
	},
	cli.Command{
		Name:    "export",
		Aliases: []string{"e"},
		Usage:   "Write a catalog table as an ESRI shapefile, or GeoJSON with --geojson",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "table, t", Usage: "Table to export"},
			cli.StringFlag{Name: "out, o", Usage: "Destination path"},
			cli.BoolFlag{Name: "geojson", Usage: "Write GeoJSON instead of a shapefile"},
		},
		Action: exportAction,
	},
	cli.Command{
		Name:  "count",
		Usage: "Count the cataloged copies of every outname base of a table",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "table, t", Usage: "Table to count", Value: "sentinel1data"},
		},
		Action: countAction,
	},
	cli.Command{
		Name:    "query",
		Aliases: []string{"q"},
		Usage:   "Select catalog rows as JSON lines",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "table, t", Usage: "Table to query"},
			cli.StringSliceFlag{Name: "column, c", Usage: "Column to return (repeatable)"},
			cli.StringSliceFlag{Name: "where, w", Usage: "column=value condition (repeatable)"},
			cli.StringFlag{Name: "wkt", Usage: "Return rows intersecting this geometry"},
			cli.IntFlag{Name: "srid", Usage: "SRID of --wkt", Value: 4326},
			cli.StringFlag{Name: "mindate", Usage: "Earliest start, YYYYmmddTHHMMSS"},
			cli.StringFlag{Name: "maxdate", Usage: "Latest stop, YYYYmmddTHHMMSS"},
			cli.StringSliceFlag{Name: "polarization, p", Usage: "Required polarization HH, VV, HV or VH (repeatable)"},
			cli.StringFlag{Name: "processdir", Usage: "Skip scenes with a product named after their outname base in this directory"},
			recursiveFlag,
		},
		Action: queryAction,
	},
	cli.Command{
		Name:      "move",
		Usage:     "Move scene archives and update their catalog paths",
		ArgsUsage: "SCENE...",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "to", Usage: "Target directory"},
		},
		Action: moveAction,
	},
	cli.Command{
		Name:      "drop",
		Usage:     "Drop a scene from a catalog table",
		ArgsUsage: "SCENE",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "table, t", Usage: "Table holding the scene"},
			cli.BoolFlag{Name: "with-duplicates", Usage: "Delete its duplicates as well"},
		},
		Action: dropAction,
	},
	cli.Command{
		Name:      "tables",
		Usage:     "List the catalog tables and their sizes, or describe one table",
		ArgsUsage: "[TABLE]",
		Flags: []cli.Flag{
			cli.BoolFlag{Name: "all", Usage: "Include PostGIS and migration tables"},
			cli.BoolFlag{Name: "dirs", Usage: "List the directories holding the scenes of TABLE"},
			cli.StringFlag{Name: "count-by", Usage: "Count the rows of TABLE per value of this column"},
		},
		Action: tablesAction,
	},
	cli.Command{
		Name:      "drop_table",
		Usage:     "Drop a catalog table",
		ArgsUsage: "TABLE",
		Action:    dropTableAction,
	},
	cli.Command{
		Name:   "schedule",
		Usage:  "Run the scheduled sweep with only the ingest control endpoints",
		Action: scheduleAction,
	},
}

func createCliApp() (app *cli.App) {
	app = cli.NewApp()
	app.Name = "bf-scene-catalog"
	app.Usage = "Catalog Sentinel-1 and Sentinel-2 scene archives in PostGIS"
	app.Version = version
	app.Commands = commands
	return
}
