package main

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/venicegeo/bf-scene-catalog/catalog"
	"github.com/venicegeo/bf-scene-catalog/ingest"
	"github.com/venicegeo/bf-scene-catalog/model"
	"github.com/venicegeo/bf-scene-catalog/util"
	cli "gopkg.in/urfave/cli.v1"
)

type scheduledJob struct {
	job      *ingest.Job
	schedule cron.Schedule
	messages chan string
}

//newScheduledJob configures the periodic sweep of SCENE_ROOT from the environment
func newScheduledJob(ctx util.LogContext, store *catalog.Store) (*scheduledJob, error) {
	spec := util.GetIngestSchedule()
	schedule, err := ingest.ParseSchedule(spec)
	if err != nil {
		return nil, errors.Wrapf(util.ErrParse, "bad ingest schedule %q: %v", spec, err)
	}
	root := util.GetSceneRoot()
	if root == "" {
		return nil, errors.Wrap(util.ErrIOFailure, "no scene root configured")
	}
	util.LogInfo(ctx, fmt.Sprintf("Sweeping %s on schedule '%s'", root, spec))

	job := ingest.NewJob(newEngine(store), ingest.JobConfig{
		Root:      root,
		Families:  model.Families,
		Recursive: true,
		Cleanup:   true,
	})
	//Create the channel that sends the start/stop messages to the job.
	return &scheduledJob{job: job, schedule: schedule, messages: make(chan string, 5)}, nil
}

//scheduleAction starts the worker process and an http server with only the ingest endpoints
func scheduleAction(*cli.Context) error {
	ctx := &util.BasicLogContext{}
	portStr := getPortStr()

	store, err := openStore(ctx)
	if err != nil {
		return exitErr(ctx, "Could not open catalog: ", err)
	}
	job, err := newScheduledJob(ctx, store)
	if err != nil {
		return exitErr(ctx, "Could not configure job: ", err)
	}

	//Start the sleep/ingest loop.
	go job.job.RunWhile(job.messages, job.schedule)

	router := mux.NewRouter()
	addIngestRoutes(router, job.job, job.messages)

	util.LogInfo(ctx, "Listening on port "+portStr)
	launchServerFunc(portStr, router)
	return nil
}

type statusReporter interface {
	GetStatus() string
}

func addIngestRoutes(router *mux.Router, job statusReporter, messageChan chan<- string) {
	router.HandleFunc("/ingest/", func(resp http.ResponseWriter, req *http.Request) {
		handleImportStatus(job, resp, req)
	})
	router.HandleFunc("/ingest/start", func(resp http.ResponseWriter, req *http.Request) {
		handleForceStartIngest(job, messageChan, resp, req)
	})
	router.HandleFunc("/ingest/cancel", func(resp http.ResponseWriter, req *http.Request) {
		handleCancel(job, messageChan, resp, req)
	})
}

//handleImportStatus requests the status from the job and writes it out.
func handleImportStatus(job statusReporter, writer http.ResponseWriter, req *http.Request) {
	fmt.Fprintln(writer, job.GetStatus())
}

//handleForceStartIngest sends a "begin" message to the job and returns the new status to the user.
func handleForceStartIngest(job statusReporter, messageChan chan<- string, writer http.ResponseWriter, req *http.Request) {
	select {
	case messageChan <- ingest.BeginIngestJobMessage:
		fmt.Fprintln(writer, "Begin job request submitted.")
	default:
		fmt.Fprintln(writer, "Error submitting request.")
	}
	fmt.Fprintln(writer, job.GetStatus())
}

//handleCancel sends a "cancel" message to the job and returns the new status to the user.
func handleCancel(job statusReporter, cancelChan chan<- string, writer http.ResponseWriter, req *http.Request) {
	select {
	case cancelChan <- ingest.AbortIngestJobMessage:
		fmt.Fprintln(writer, "Cancel request submitted.")
	default:
		fmt.Fprintln(writer, "Error submitting cancel request.")
	}
	fmt.Fprintln(writer, job.GetStatus())
}
