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
	"sync"

	"github.com/annchain/dagcommit/committee"
	"github.com/annchain/dagcommit/metrics"
	"github.com/annchain/dagcommit/types"
	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"
)

// LeaderSchedule names the leader of every (round, offset) slot. Every
// honest node computes the same leader from the committee and the current
// swap table alone.
type LeaderSchedule struct {
	Logger  *logrus.Logger
	Metrics *metrics.Metrics

	committee *committee.Committee
	config    Config
	// round -> stake weighted permutation of the committee
	permutations *lru.Cache

	mu    sync.RWMutex
	table *LeaderSwapTable
}

// NewLeaderSchedule creates a schedule using table, or the empty table when
// table is nil.
func NewLeaderSchedule(c *committee.Committee, table *LeaderSwapTable, config Config) *LeaderSchedule {
	if err := config.Validate(); err != nil {
		panic(fmt.Sprintf("invalid leader schedule config: %v", err))
	}
	if table == nil {
		table = NewDefaultLeaderSwapTable()
	}
	permutations, err := lru.New(config.ElectionCacheSize)
	if err != nil {
		panic(err)
	}
	return &LeaderSchedule{
		Logger:       logrus.StandardLogger(),
		Metrics:      metrics.NewUnregisteredMetrics(),
		committee:    c,
		config:       config,
		permutations: permutations,
		table:        table,
	}
}

// ElectLeader returns the leader of slot (round, offset) after applying the
// swap table. offset must be below the committee size.
func (s *LeaderSchedule) ElectLeader(round types.Round, offset uint32) types.AuthorityIndex {
	var leader types.AuthorityIndex
	switch s.config.LeaderElection {
	case ElectionRoundRobin:
		leader = s.electLeaderRoundRobin(round, offset)
	default:
		leader = s.ElectLeaderStakeBased(round, offset)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if swapped, ok := s.table.Swap(leader, round, offset); ok {
		s.Metrics.LeaderSwaps.Inc()
		return swapped
	}
	return leader
}

func (s *LeaderSchedule) electLeaderRoundRobin(round types.Round, offset uint32) types.AuthorityIndex {
	s.checkOffset(offset)
	size := uint32(s.committee.Size())
	return types.AuthorityIndex((uint32(round) + offset) % size)
}

// ElectLeaderStakeBased draws a stake weighted permutation of the committee
// seeded by round and returns its entry at offset. All offsets of a round
// share the permutation, so they name distinct authorities.
func (s *LeaderSchedule) ElectLeaderStakeBased(round types.Round, offset uint32) types.AuthorityIndex {
	s.checkOffset(offset)
	return s.permutation(round)[offset]
}

func (s *LeaderSchedule) checkOffset(offset uint32) {
	if int(offset) >= s.committee.Size() {
		panic(fmt.Sprintf("leader offset %d out of committee size %d", offset, s.committee.Size()))
	}
}

func (s *LeaderSchedule) permutation(round types.Round) []types.AuthorityIndex {
	if v, ok := s.permutations.Get(round); ok {
		return v.([]types.AuthorityIndex)
	}
	permutation := weightedPermutation(s.committee, newSeededRand(roundSeed(uint32(round))))
	s.permutations.Add(round, permutation)
	return permutation
}

// weightedPermutation samples the whole committee without replacement, each
// draw picking a remaining authority with probability proportional to its
// stake.
func weightedPermutation(c *committee.Committee, rng *seededRand) []types.AuthorityIndex {
	remaining := c.Authorities()
	var total uint64
	for _, a := range remaining {
		total += uint64(a.Stake)
	}

	permutation := make([]types.AuthorityIndex, 0, len(remaining))
	for len(remaining) > 0 {
		chosen := len(remaining) - 1
		if total > 0 {
			r := rng.Uint64n(total)
			for i, a := range remaining {
				if r < uint64(a.Stake) {
					chosen = i
					break
				}
				r -= uint64(a.Stake)
			}
		} else {
			// only zero stake authorities are left
			chosen = 0
		}
		permutation = append(permutation, remaining[chosen].Index)
		total -= uint64(remaining[chosen].Stake)
		remaining = append(remaining[:chosen], remaining[chosen+1:]...)
	}
	return permutation
}

// UpdateLeaderSwapTable installs table. Unless the schedule still runs on
// the empty table, the new commit range must directly follow the installed
// one with the same length.
func (s *LeaderSchedule) UpdateLeaderSwapTable(table *LeaderSwapTable) {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldRange := s.table.CommitRange()
	newRange := table.CommitRange()
	if !oldRange.IsZero() && !oldRange.IsNextRange(newRange) {
		panic(fmt.Sprintf("The new LeaderSwapTable has an invalid CommitRange. Old LeaderSwapTable %s vs new LeaderSwapTable %s",
			oldRange, newRange))
	}
	s.Logger.WithField("table", table).Trace("updating leader swap table")
	s.table = table
	s.Metrics.SwapTableUpdates.Inc()
	s.Metrics.SwapTableCommitStart.Set(float64(newRange.Start))
}

// LeaderSwapTable returns the installed table. Tables are immutable so the
// result stays valid after later updates.
func (s *LeaderSchedule) LeaderSwapTable() *LeaderSwapTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// UpdateFromScores builds a swap table from scores with the configured
// threshold and installs it.
func (s *LeaderSchedule) UpdateFromScores(scores types.ReputationScores) *LeaderSwapTable {
	table := NewLeaderSwapTable(s.committee, scores, s.config.SwapStakeThreshold)
	s.UpdateLeaderSwapTable(table)
	return table
}

// CommitsUntilLeaderScheduleUpdate returns how many more commits the
// current reputation window spans after lastCommitIndex.
func (s *LeaderSchedule) CommitsUntilLeaderScheduleUpdate(lastCommitIndex types.CommitIndex) uint32 {
	committed := uint32(lastCommitIndex) % s.config.CommitsPerSchedule
	return s.config.CommitsPerSchedule - committed
}
