// Copyright © 2019 Annchain Authors <EMAIL ADDRESS>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics holds the prometheus collectors of commit production.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type Metrics struct {
	// Linearizer
	CommittedSubDags prometheus.Counter
	CommittedBlocks  prometheus.Counter
	SubDagSize       prometheus.Histogram
	LastCommitIndex  prometheus.Gauge
	Flushes          prometheus.Counter

	// LeaderSchedule
	LeaderSwaps          prometheus.Counter
	SwapTableUpdates     prometheus.Counter
	SwapTableCommitStart prometheus.Gauge
}

// NewMetrics registers every collector on reg under namespace.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CommittedSubDags: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "committed_subdags_total",
			Help:      "Total number of committed sub-dags",
		}),
		CommittedBlocks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "committed_blocks_total",
			Help:      "Total number of blocks included in commits",
		}),
		SubDagSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "subdag_size_blocks",
			Help:      "Number of blocks per committed sub-dag",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128, 256, 512},
		}),
		LastCommitIndex: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_commit_index",
			Help:      "Index of the last commit produced",
		}),
		Flushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dag_flushes_total",
			Help:      "Total number of dag state flushes forced by commits",
		}),
		LeaderSwaps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leader_swaps_total",
			Help:      "Total number of elections where a bad leader was swapped",
		}),
		SwapTableUpdates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swap_table_updates_total",
			Help:      "Total number of leader swap tables installed",
		}),
		SwapTableCommitStart: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "swap_table_commit_range_start",
			Help:      "First commit index of the installed swap table scores",
		}),
	}
}

// NewUnregisteredMetrics registers on a private registry nobody gathers.
// Components use it until a real one is set.
func NewUnregisteredMetrics() *Metrics {
	return NewMetrics("dagcommit", prometheus.NewRegistry())
}

// Serve exposes gatherer on /metrics at port until the listener fails.
func Serve(port int, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	addr := fmt.Sprintf(":%d", port)
	logrus.WithField("addr", addr).Info("serving metrics")
	return http.ListenAndServe(addr, mux)
}
