/*
 Copyright 2023 Parsec Cloud Authors.

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

package remote

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	fetchLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "remote_fetch_latency_seconds",
			Help:    "The latency of fetching manifest from server.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 15),
		},
	)
	fetchErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remote_fetch_errors",
			Help: "This count of fetching manifest encountering errors",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		fetchLatency,
		fetchErrorCounter,
	)
}

func logFetchLatency(startAt time.Time) {
	fetchLatency.Observe(time.Since(startAt).Seconds())
}

func logFetchError(err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	fetchErrorCounter.WithLabelValues(errorKind(err)).Inc()
}
