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
	"fmt"

	"github.com/spf13/viper"
)

const (
	// ElectionStake draws leaders from a stake weighted permutation seeded
	// by the round.
	ElectionStake = "stake"
	// ElectionRoundRobin rotates leaders by index. Useful for tests and
	// for committees where stake does not matter.
	ElectionRoundRobin = "round-robin"

	MaxSwapStakeThreshold = 33
)

type Config struct {
	LeaderElection string `mapstructure:"leader_election"`
	// SwapStakeThreshold is the percentage of total stake taken as good
	// and as bad nodes when a swap table is built.
	SwapStakeThreshold uint64 `mapstructure:"swap_stake_threshold"`
	// CommitsPerSchedule is how many commits a reputation window spans.
	CommitsPerSchedule uint32 `mapstructure:"commits_per_schedule"`
	ElectionCacheSize  int    `mapstructure:"election_cache_size"`
}

func DefaultConfig() Config {
	return Config{
		LeaderElection:     ElectionStake,
		SwapStakeThreshold: 20,
		CommitsPerSchedule: 300,
		ElectionCacheSize:  1024,
	}
}

// LoadConfig reads the "consensus" section of v on top of DefaultConfig.
func LoadConfig(v *viper.Viper) (Config, error) {
	config := DefaultConfig()
	if v.IsSet("consensus") {
		if err := v.UnmarshalKey("consensus", &config); err != nil {
			return config, fmt.Errorf("parse consensus config: %v", err)
		}
	}
	return config, config.Validate()
}

func (c Config) Validate() error {
	switch c.LeaderElection {
	case ElectionStake, ElectionRoundRobin:
	default:
		return fmt.Errorf("unknown leader election %q, expect %q or %q", c.LeaderElection, ElectionStake, ElectionRoundRobin)
	}
	if c.SwapStakeThreshold > MaxSwapStakeThreshold {
		return fmt.Errorf("swap stake threshold %d is above %d", c.SwapStakeThreshold, MaxSwapStakeThreshold)
	}
	if c.CommitsPerSchedule == 0 {
		return fmt.Errorf("commits per schedule must be positive")
	}
	if c.ElectionCacheSize <= 0 {
		return fmt.Errorf("election cache size must be positive")
	}
	return nil
}
