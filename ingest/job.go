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

package ingest

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/venicegeo/bf-scene-catalog/metrics"
	"github.com/venicegeo/bf-scene-catalog/model"
	"github.com/venicegeo/bf-scene-catalog/util"
)

//BeginIngestJobMessage is sent on a channel to start an ingest job.
const BeginIngestJobMessage = "start"

//AbortIngestJobMessage is sent on a channel to stop an in-progress job.
const AbortIngestJobMessage = "stop"

const statusTimeLayout = "Mon Jan _2 15:04:05 2006"

//JobConfig says what a scheduled job sweeps
type JobConfig struct {
	Root      string
	Families  []model.Family
	Recursive bool
	Update    bool
	Cleanup   bool
}

//Job runs sweep, inventory refresh, ingest and cleanup on a schedule.
type Job struct {
	engine     *Engine
	config     JobConfig
	statusChan chan chan string
}

//NewJob initializes a new job.
func NewJob(engine *Engine, config JobConfig) *Job {
	if len(config.Families) == 0 {
		config.Families = model.Families
	}
	return &Job{
		engine:     engine,
		config:     config,
		statusChan: make(chan chan string, 10)}
}

//ParseSchedule parses a standard five-field cron expression
func ParseSchedule(spec string) (cron.Schedule, error) {
	return cron.ParseStandard(spec)
}

//RunWhile runs the job whenever the schedule fires or a begin message arrives.
//Note: this is blocking
//The function will exit when messageChan is closed and any in-progress jobs complete.
//To close quickly, send AbortIngestJobMessage on messageChan before closing it.
func (j *Job) RunWhile(messageChan <-chan string, schedule cron.Schedule) {
	logCtx := &util.BasicLogContext{}
	util.LogInfo(logCtx, "Job loop started")

	previousStatus := "\tNone"

	nextScheduledStartTime := schedule.Next(time.Now())
	scheduleTimer := time.NewTimer(time.Until(nextScheduledStartTime))
	defer scheduleTimer.Stop()

	var startJob bool
	for {
		startJob = false

		//Status is reported cooperatively while we wait.
		select {
		case <-scheduleTimer.C:
			util.LogInfo(logCtx, "Scheduled job start reached.")
			startJob = true
		case msg, ok := <-messageChan:
			if !ok {
				return
			}
			if msg == BeginIngestJobMessage {
				util.LogInfo(logCtx, "User requested job start.")
				startJob = true
			}
		case respChan := <-j.statusChan:
			select {
			case respChan <- fmt.Sprintf("%v\nStatus: Sleeping until %v\nPrevious job:\n%v",
				time.Now().Format(statusTimeLayout),
				nextScheduledStartTime.Format(statusTimeLayout),
				previousStatus):
			default:
			}
		}

		if startJob {
			previousStatus = j.Run(messageChan)

			scheduleTimer.Stop()
		TimerDrainLoop:
			for {
				select {
				case <-scheduleTimer.C:
				default:
					break TimerDrainLoop
				}
			}

			nextScheduledStartTime = schedule.Next(time.Now())
			scheduleTimer.Reset(time.Until(nextScheduledStartTime))
		}
	}
}

//GetStatus is a thread safe way to get information about the job.
func (j *Job) GetStatus() string {
	responseChan := make(chan string, 1) //Must have a buffer. The job loop won't wait if it can't send.
	j.statusChan <- responseChan
	return <-responseChan
}

//Run performs one sweep-and-ingest pass over every configured family and
//returns the report as text.
func (j *Job) Run(messageChan <-chan string) string {
	logCtx := &util.BasicLogContext{}
	start := time.Now()
	total := newReport()
	status := "ok"

	opts := Options{Update: j.config.Update, Cancel: messageChan, Status: j.statusChan}
	for _, family := range j.config.Families {
		if _, err := j.engine.RefreshInventory(j.config.Root, family, j.config.Recursive); err != nil {
			util.LogSimpleErr(logCtx, fmt.Sprintf("Sweep of %s for %s failed: ", j.config.Root, family), err)
			status = "error"
			continue
		}
		drainStatusChannel(j.statusChan, total)

		report, err := j.engine.IngestFromInventory(family, opts)
		if err != nil {
			util.LogSimpleErr(logCtx, fmt.Sprintf("Ingest of %s failed: ", family), err)
			status = "error"
			continue
		}
		total.Add(report)
		if total.CanceledByUser {
			status = "canceled"
			break
		}
	}

	if j.config.Cleanup && !total.CanceledByUser {
		drainStatusChannel(j.statusChan, total)
		if _, err := j.engine.Cleanup(); err != nil {
			util.LogSimpleErr(logCtx, "Cleanup failed: ", err)
			status = "error"
		}
	}
	if !total.CanceledByUser {
		if err := j.engine.store.Maintain(catalogTables()...); err != nil {
			status = "error"
		}
	}

	total.EndTime = time.Now()
	metrics.JobDuration.WithLabelValues(status).Observe(total.EndTime.Sub(start).Seconds())
	util.LogInfo(logCtx, fmt.Sprintf("Job complete in %s: %s", total.EndTime.Sub(start), total.Summary()))
	return total.String()
}

//drainMessages reads all the messages from the channel looking for
//any abort messages.
//All other messages will be ignored and discarded.
func drainMessages(messageChan <-chan string) (abortRequested bool) {
	if messageChan == nil {
		return false
	}
	for {
		select {
		case msg, ok := <-messageChan:
			if !ok {
				return
			}
			abortRequested = abortRequested || (msg == AbortIngestJobMessage)
		default:
			return
		}
	}
}

//drainStatusChannel drains the status request channel
//and sends back a status string
func drainStatusChannel(statusChan <-chan chan string, report *Report) {
	if statusChan == nil {
		return
	}
	for {
		select {
		case resp := <-statusChan:
			if resp != nil {
				select {
				case resp <- fmt.Sprintf("%v\nIn progress\n%v", time.Now().Format(statusTimeLayout), report.String()):
				default:
				}
			}
		default:
			return
		}
	}
}
