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
	"sort"

	"github.com/annchain/dagcommit/committee"
	"github.com/annchain/dagcommit/types"
	"github.com/sirupsen/logrus"
)

// SwapNode is an authority taking part in leader swapping. Hostname and
// stake are kept for logs.
type SwapNode struct {
	Authority types.AuthorityIndex
	Hostname  string
	Stake     types.Stake
}

// LeaderSwapTable replaces leaders with poor reputation by leaders with good
// reputation. A table is never modified once built; LeaderSchedule installs
// a new one every reputation window.
type LeaderSwapTable struct {
	// GoodNodes are the best scoring authorities up to the stake threshold,
	// best first.
	GoodNodes []SwapNode
	// BadNodes are the worst scoring authorities up to the same threshold.
	BadNodes map[types.AuthorityIndex]SwapNode

	ReputationScores types.ReputationScores
}

// NewLeaderSwapTable partitions the committee by scores. swapStakeThreshold
// is a percentage of total stake in [0, 33]; anything else panics.
func NewLeaderSwapTable(c *committee.Committee, scores types.ReputationScores, swapStakeThreshold uint64) *LeaderSwapTable {
	if swapStakeThreshold > MaxSwapStakeThreshold {
		panic(fmt.Sprintf("The swap_stake_threshold (%d) should be in range [0 - 33], out of bounds parameter detected", swapStakeThreshold))
	}

	byScore := scores.AuthoritiesByScoreDesc()
	goodNodes := retrieveFirstNodes(c, byScore, swapStakeThreshold)

	ascending := make([]types.AuthorityScore, len(byScore))
	for i, a := range byScore {
		ascending[len(byScore)-1-i] = a
	}
	badNodes := make(map[types.AuthorityIndex]SwapNode)
	for _, node := range retrieveFirstNodes(c, ascending, swapStakeThreshold) {
		badNodes[node.Authority] = node
	}

	table := &LeaderSwapTable{
		GoodNodes:        goodNodes,
		BadNodes:         badNodes,
		ReputationScores: scores,
	}
	logrus.WithFields(logrus.Fields{
		"range":  scores.CommitRange,
		"scores": scores.ScoresPerAuthority,
	}).Debug("scores used for new leader swap table")
	logrus.WithField("table", table).Debug("leader swap table built")
	return table
}

// NewDefaultLeaderSwapTable returns the empty table a schedule starts from.
// It swaps nothing and carries the [0,0) commit range.
func NewDefaultLeaderSwapTable() *LeaderSwapTable {
	return &LeaderSwapTable{
		BadNodes: make(map[types.AuthorityIndex]SwapNode),
	}
}

// retrieveFirstNodes takes authorities in the given order until the
// accumulated stake would exceed threshold percent of the total stake.
func retrieveFirstNodes(c *committee.Committee, authorities []types.AuthorityScore, threshold uint64) []SwapNode {
	limit := threshold * uint64(c.TotalStake()) / 100
	var nodes []SwapNode
	var stake uint64
	for _, a := range authorities {
		stake += uint64(c.Stake(a.Authority))
		if stake > limit {
			break
		}
		authority := c.Authority(a.Authority)
		nodes = append(nodes, SwapNode{
			Authority: a.Authority,
			Hostname:  authority.Hostname,
			Stake:     authority.Stake,
		})
	}
	return nodes
}

// Swap returns the good authority that replaces leader at the given slot,
// or false when leader is not a bad node.
func (t *LeaderSwapTable) Swap(leader types.AuthorityIndex, round types.Round, offset uint32) (types.AuthorityIndex, bool) {
	if _, bad := t.BadNodes[leader]; !bad {
		return leader, false
	}
	if offset != 0 {
		panic("Swap for multi-leader case not implemented yet.")
	}
	if len(t.GoodNodes) == 0 {
		panic("There should be at least one good node available")
	}
	rng := newSeededRand(swapSeed(uint32(round), offset))
	good := t.GoodNodes[rng.Uint64n(uint64(len(t.GoodNodes)))]
	logrus.WithFields(logrus.Fields{
		"bad":   leader,
		"good":  good.Authority,
		"round": round,
	}).Trace("swapping bad leader")
	return good.Authority, true
}

func (t *LeaderSwapTable) CommitRange() types.CommitRange {
	return t.ReputationScores.CommitRange
}

func (t *LeaderSwapTable) String() string {
	var good []types.AuthorityIndex
	var goodStake types.Stake
	for _, n := range t.GoodNodes {
		good = append(good, n.Authority)
		goodStake += n.Stake
	}
	var bad []types.AuthorityIndex
	var badStake types.Stake
	for idx, n := range t.BadNodes {
		bad = append(bad, idx)
		badStake += n.Stake
	}
	sort.Slice(bad, func(i, j int) bool { return bad[i] < bad[j] })
	return fmt.Sprintf("LeaderSwapTable for %s, good_nodes:%v with stake:%d, bad_nodes:%v with stake:%d",
		t.ReputationScores.CommitRange, good, goodStake, bad, badStake)
}
