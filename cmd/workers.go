/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"
	"github.com/spf13/cobra"

	exporter "github.com/market-exporter/exporter"
	"github.com/market-exporter/exporter/config"
	redis_db "github.com/market-exporter/exporter/internal/redis-db"
)

func initializeQueues(conf *config.Configuration) map[string]int {
	return map[string]int{
		conf.Queue.ExportQueue:  3,
		conf.Queue.WebhookQueue: 1,
	}
}

// initializeWorkerServer runs one task at a time: export steps of a job must not overlap.
func initializeWorkerServer(conf *config.Configuration, queues map[string]int) (*asynq.Server, error) {
	redisOption, err := redis_db.AsynqConnOpt(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		return nil, fmt.Errorf("error parsing Redis URL: %v", err)
	}

	return asynq.NewServer(
		redisOption,
		asynq.Config{
			Concurrency: 1,
			Queues:      queues,
		},
	), nil
}

func initializeTaskHandlers(e *exporterInstance, mux *asynq.ServeMux) {
	mux.HandleFunc(exporter.TaskExportStep, e.exporter.ProcessStepTask)
	mux.HandleFunc(e.cnf.Queue.WebhookQueue, exporter.ProcessWebhook)
}

func startMonitoring(conf *config.Configuration) error {
	redisOption, err := redis_db.AsynqConnOpt(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		return err
	}
	h := asynqmon.New(asynqmon.Options{
		RootPath:     "/monitoring",
		RedisConnOpt: redisOption,
	})

	go func() {
		monitoringAddr := fmt.Sprintf(":%s", conf.Queue.MonitoringPort)
		log.Printf("Asynqmon server listening on %s/monitoring", monitoringAddr)
		if err := http.ListenAndServe(monitoringAddr, h); err != nil {
			log.Fatalf("could not start asynqmon server: %v", err)
		}
	}()
	return nil
}

// workerCommands defines the "workers" command. The workers run export steps and
// deliver webhooks, register the periodic regeneration and watch for stalled jobs.
func workerCommands(e *exporterInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workers",
		Short: "start exporter workers",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			conf := e.cnf

			srv, err := initializeWorkerServer(conf, initializeQueues(conf))
			if err != nil {
				log.Fatal(err)
			}

			mux := asynq.NewServeMux()
			initializeTaskHandlers(e, mux)

			scheduler, err := exporter.NewPeriodicScheduler(conf)
			if err != nil {
				log.Fatalf("could not register periodic export: %v", err)
			}
			if scheduler != nil {
				if err := scheduler.Start(); err != nil {
					log.Fatalf("could not start scheduler: %v", err)
				}
				defer scheduler.Shutdown()
				log.Printf("Periodic export registered: %s", conf.Feed.Misc.Cron)
			}

			recovery := exporter.NewStepRecoveryProcessor(e.exporter, time.Duration(conf.Queue.StepDelaySec)*time.Second)
			recovery.Start(ctx)
			defer recovery.Stop()

			if err := startMonitoring(conf); err != nil {
				log.Fatal(err)
			}

			if err := srv.Run(mux); err != nil {
				log.Fatalf("could not run server: %v", err)
			}
		},
	}

	return cmd
}
