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
package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("dagcommit", reg)

	m.CommittedSubDags.Inc()
	m.CommittedBlocks.Add(4)
	m.LastCommitIndex.Set(7)
	m.SubDagSize.Observe(4)

	require.Equal(t, float64(1), testutil.ToFloat64(m.CommittedSubDags))
	require.Equal(t, float64(4), testutil.ToFloat64(m.CommittedBlocks))
	require.Equal(t, float64(7), testutil.ToFloat64(m.LastCommitIndex))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["dagcommit_committed_subdags_total"])
	require.True(t, names["dagcommit_subdag_size_blocks"])
}

func TestNewMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics("dagcommit", reg)
	require.Panics(t, func() { NewMetrics("dagcommit", reg) })
	require.NotPanics(t, func() {
		NewUnregisteredMetrics()
		NewUnregisteredMetrics()
	})
}
