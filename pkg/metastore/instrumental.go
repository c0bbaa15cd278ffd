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

package metastore

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chinmaym07/parsec-cloud/pkg/types"
)

var (
	storeOperationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "manifest_store_operation_latency_seconds",
			Help:    "The latency of local manifest store operation.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		},
		[]string{"operation"},
	)
	storeOperationErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manifest_store_operation_errors",
			Help: "This count of local manifest store encountering errors",
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(
		storeOperationLatency,
		storeOperationErrorCounter,
	)
}

func logOperationLatency(operation string, startAt time.Time) {
	storeOperationLatency.WithLabelValues(operation).Observe(time.Since(startAt).Seconds())
}

func logOperationError(operation string, err error) {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, types.ErrNotFound) {
		return
	}
	storeOperationErrorCounter.WithLabelValues(operation).Inc()
}
