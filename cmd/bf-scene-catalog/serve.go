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
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/venicegeo/bf-scene-catalog/catalog"
	"github.com/venicegeo/bf-scene-catalog/export"
	"github.com/venicegeo/bf-scene-catalog/schema"
	"github.com/venicegeo/bf-scene-catalog/util"
	cli "gopkg.in/urfave/cli.v1"
)

func getPortStr() string {
	if port, ok := os.LookupEnv("PORT"); ok {
		return ":" + port
	}
	return ":8080"
}

func createRouter(ctx util.LogContext) (*mux.Router, *catalog.Store, error) {
	router := mux.NewRouter()
	router.HandleFunc("/", func(writer http.ResponseWriter, request *http.Request) {
		writer.Write([]byte("OK"))
	})
	router.Handle("/metrics", promhttp.Handler())

	db, err := getDbConnectionFunc(ctx)
	if err != nil {
		return nil, nil, err
	}
	store := catalog.New(db, schema.Default())
	cfg, err := getDBConfig(ctx)
	if err != nil {
		util.LogAlert(ctx, "No discrete database parameters, shapefile export unavailable: "+err.Error())
	}
	exporter := export.NewExporter(store, cfg)
	router.Handle("/discover/{table}", export.NewDiscoverHandler(exporter))
	router.Handle("/count/{table}", export.NewCountHandler(exporter))

	return router, store, nil
}

func serveAction(*cli.Context) error {
	logContext := &(util.BasicLogContext{})

	portStr := getPortStr()

	router, store, err := createRouter(logContext)
	if err != nil {
		return cli.NewExitError(util.LogSimpleErr(logContext, "Failed to create router: ", err).Error(), 1)
	}

	job, err := newScheduledJob(logContext, store)
	if err != nil {
		util.LogSimpleErr(logContext, "Not starting scheduled sweep: ", err)
	} else {
		addIngestRoutes(router, job.job, job.messages)
		go job.job.RunWhile(job.messages, job.schedule)
	}

	launchServerFunc(portStr, router)
	return nil
}

var launchServerFunc = launchServer

func launchServer(portStr string, router *mux.Router) {
	server := http.Server{
		Addr:    portStr,
		Handler: router,
	}

	log.Fatal(server.ListenAndServe())
}
