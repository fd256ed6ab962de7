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
package consensus

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig(viper.New())
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), config)
}

func TestLoadConfig(t *testing.T) {
	v := viper.New()
	v.SetConfigType("toml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
[consensus]
leader_election = "round-robin"
swap_stake_threshold = 33
`)))
	config, err := LoadConfig(v)
	require.NoError(t, err)
	require.Equal(t, ElectionRoundRobin, config.LeaderElection)
	require.Equal(t, uint64(33), config.SwapStakeThreshold)
	require.Equal(t, DefaultConfig().CommitsPerSchedule, config.CommitsPerSchedule)
}

func TestLoadConfigInvalid(t *testing.T) {
	for _, body := range []string{
		"[consensus]\nleader_election = \"lottery\"\n",
		"[consensus]\nswap_stake_threshold = 34\n",
		"[consensus]\ncommits_per_schedule = 0\n",
	} {
		v := viper.New()
		v.SetConfigType("toml")
		require.NoError(t, v.ReadConfig(strings.NewReader(body)))
		_, err := LoadConfig(v)
		require.Error(t, err, body)
	}
}
