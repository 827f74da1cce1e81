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

package exporter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exporter_steps_total",
		Help: "Export steps by outcome",
	}, []string{"result"})

	offersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exporter_offers_total",
		Help: "Offers written to feed documents",
	})

	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exporter_jobs_total",
		Help: "Finished export jobs by final status",
	}, []string{"status"})

	stepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "exporter_step_duration_seconds",
		Help:    "Duration of a single export step",
		Buckets: prometheus.DefBuckets,
	})
)
