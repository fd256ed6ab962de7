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
	"testing"

	"github.com/annchain/dagcommit/committee"
	"github.com/annchain/dagcommit/core"
	"github.com/annchain/dagcommit/ogdb"
	"github.com/annchain/dagcommit/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type linearizerFixture struct {
	committee *committee.Committee
	store     *ogdb.MemStore
	dag       *core.DagState
	schedule  *LeaderSchedule
	builder   *core.DagBuilder
	linear    *Linearizer
}

func newLinearizerFixture(t *testing.T, size int) *linearizerFixture {
	c := committee.NewEqualStake(size)
	store := ogdb.NewMemStore()
	dag, err := core.NewDagState(c, store, core.DefaultDagStateConfig())
	require.NoError(t, err)
	schedule := NewLeaderSchedule(c, nil, roundRobinConfig())
	return &linearizerFixture{
		committee: c,
		store:     store,
		dag:       dag,
		schedule:  schedule,
		builder:   core.NewDagBuilder(c, schedule),
		linear:    NewLinearizer(dag),
	}
}

func requireSorted(t *testing.T, subDag *types.CommittedSubDag) {
	for i := 1; i < len(subDag.Blocks); i++ {
		prev, cur := subDag.Blocks[i-1], subDag.Blocks[i]
		require.True(t, prev.Round() < cur.Round() || (prev.Round() == cur.Round() && prev.Author() < cur.Author()),
			"blocks out of order: %s", subDag)
	}
}

func TestHandleCommit(t *testing.T) {
	f := newLinearizerFixture(t, 4)
	f.builder.PersistLayers(f.dag, 1, 10)
	leaders := f.builder.LeaderBlocks(1, 10)

	subDags := f.linear.HandleCommit(leaders)
	require.Len(t, subDags, 10)
	for i, subDag := range subDags {
		require.Equal(t, leaders[i].Reference(), subDag.Leader)
		require.Equal(t, types.CommitIndex(i+1), subDag.CommitIndex)
		require.Equal(t, leaders[i].TimestampMs(), subDag.TimestampMs)
		if i == 0 {
			// genesis blocks are never committed
			require.Len(t, subDag.Blocks, 1)
		} else {
			require.Len(t, subDag.Blocks, 4)
		}
		requireSorted(t, subDag)
		// the leader sits in the highest round of its sub-dag
		require.Equal(t, subDag.Leader, subDag.Blocks[len(subDag.Blocks)-1].Reference())
		for _, b := range subDag.Blocks {
			require.True(t, b.Round() == leaders[i].Round() || b.Round() == leaders[i].Round()-1)
		}
	}

	f.dag.RLock()
	require.Equal(t, types.CommitIndex(10), f.dag.LastCommitIndex())
	blocks, commits := f.dag.PendingWrites()
	f.dag.RUnlock()
	require.Zero(t, blocks)
	require.Zero(t, commits)

	last, err := f.store.ReadLastCommit()
	require.NoError(t, err)
	require.Equal(t, types.CommitIndex(10), last.Index)

	require.Equal(t, float64(10), testutil.ToFloat64(f.linear.Metrics.CommittedSubDags))
	require.Equal(t, float64(37), testutil.ToFloat64(f.linear.Metrics.CommittedBlocks))
	require.Equal(t, float64(10), testutil.ToFloat64(f.linear.Metrics.LastCommitIndex))
	require.Equal(t, float64(1), testutil.ToFloat64(f.linear.Metrics.Flushes))
}

func TestHandleCommitEmpty(t *testing.T) {
	f := newLinearizerFixture(t, 4)
	blocks := f.builder.Blocks(1, 3)
	f.dag.Lock()
	f.dag.AcceptBlocks(blocks)
	f.dag.Unlock()

	require.Empty(t, f.linear.HandleCommit(nil))

	f.dag.RLock()
	pending, _ := f.dag.PendingWrites()
	f.dag.RUnlock()
	require.Equal(t, len(blocks), pending)
	require.Equal(t, float64(0), testutil.ToFloat64(f.linear.Metrics.Flushes))
}

func TestHandleCommitAcrossCalls(t *testing.T) {
	f := newLinearizerFixture(t, 4)
	f.builder.PersistLayers(f.dag, 1, 10)
	leaders := f.builder.LeaderBlocks(1, 10)

	var subDags []*types.CommittedSubDag
	subDags = append(subDags, f.linear.HandleCommit(leaders[:3])...)
	subDags = append(subDags, f.linear.HandleCommit(leaders[3:7])...)
	subDags = append(subDags, f.linear.HandleCommit(leaders[7:])...)
	require.Len(t, subDags, 10)

	committed := make(map[types.BlockRef]types.CommitIndex)
	for _, subDag := range subDags {
		for _, ref := range subDag.References() {
			prev, dup := committed[ref]
			require.False(t, dup, "%s committed by %d and %d", ref, prev, subDag.CommitIndex)
			committed[ref] = subDag.CommitIndex
		}
	}
	require.Len(t, committed, 37)
	require.Equal(t, float64(3), testutil.ToFloat64(f.linear.Metrics.Flushes))
}

func TestHandleAlreadyCommitted(t *testing.T) {
	f := newLinearizerFixture(t, 4)
	f.builder.PersistLayers(f.dag, 1, 10)

	// commit round 6 first; earlier leaders are then covered by its history
	first := f.linear.HandleCommit([]*types.VerifiedBlock{f.builder.LeaderBlock(6)})
	require.Len(t, first, 1)
	require.Len(t, first[0].Blocks, 1+4*5)

	// a later leader only picks up what round 6 did not reach
	next := f.linear.HandleCommit([]*types.VerifiedBlock{f.builder.LeaderBlock(8)})
	require.Len(t, next, 1)
	require.Equal(t, types.CommitIndex(2), next[0].CommitIndex)
	for _, b := range next[0].Blocks {
		if b.Round() == 6 {
			require.NotEqual(t, first[0].Leader.Author, b.Author())
		}
		require.True(t, b.Round() >= 6)
	}
	// round 7 and leader 8, plus the three round 6 blocks the first commit skipped
	require.Len(t, next[0].Blocks, 4+1+3)
}

func TestHandleCommitTimestampsMonotonic(t *testing.T) {
	f := newLinearizerFixture(t, 4)
	f.builder.TimestampMs = func(round types.Round) uint64 {
		return 100000 - uint64(round)*1000
	}
	f.builder.PersistLayers(f.dag, 1, 10)
	leaders := f.builder.LeaderBlocks(1, 10)

	subDags := f.linear.HandleCommit(leaders)
	require.Len(t, subDags, 10)
	for i, subDag := range subDags {
		require.Equal(t, leaders[0].TimestampMs(), subDag.TimestampMs)
		if i > 0 {
			require.True(t, subDag.TimestampMs >= subDags[i-1].TimestampMs)
		}
	}
}

func TestHandleCommitChain(t *testing.T) {
	f := newLinearizerFixture(t, 4)
	f.builder.PersistLayers(f.dag, 1, 6)
	subDags := f.linear.HandleCommit(f.builder.LeaderBlocks(1, 6))

	commits, err := f.store.ScanCommits(1)
	require.NoError(t, err)
	require.Len(t, commits, 6)

	previous := types.CommitDigestMin
	for i, commit := range commits {
		require.Equal(t, types.CommitIndex(i+1), commit.Index)
		require.Equal(t, previous, commit.PreviousDigest)
		require.Equal(t, subDags[i].Leader, commit.Leader)
		require.Equal(t, subDags[i].References(), commit.Blocks)
		require.Equal(t, subDags[i].TimestampMs, commit.TimestampMs)

		parsed, err := types.ParseTrustedCommit(commit.Serialized())
		require.NoError(t, err)
		require.Equal(t, commit.Digest(), parsed.Digest())
		require.Equal(t, commit.Blocks, parsed.Blocks)
		previous = commit.Digest()
	}
}

func TestHandleCommitMissingAncestor(t *testing.T) {
	f := newLinearizerFixture(t, 4)
	// round 2 is accepted without its round 1 ancestors
	f.dag.Lock()
	f.dag.AcceptBlocks(f.builder.Blocks(2, 2))
	f.dag.Unlock()

	require.Panics(t, func() {
		f.linear.HandleCommit([]*types.VerifiedBlock{f.builder.LeaderBlock(2)})
	})
}

func TestHandleCommitUnknownAuthorityAncestor(t *testing.T) {
	f := newLinearizerFixture(t, 4)
	leader, err := types.NewVerifiedBlock(types.Block{
		Round:       1,
		Author:      0,
		TimestampMs: 1000,
		Ancestors:   []types.BlockRef{types.NewBlockRef(9, 0, types.BlockDigest{})},
	})
	require.NoError(t, err)

	defer func() {
		msg, ok := recover().(string)
		require.True(t, ok)
		require.Contains(t, msg, "unknown authority")
	}()
	f.linear.HandleCommit([]*types.VerifiedBlock{leader})
}

func TestHandleCommitWithSwappedLeaders(t *testing.T) {
	f := newLinearizerFixture(t, 4)
	f.schedule.UpdateLeaderSwapTable(NewLeaderSwapTable(f.committee, scoresFor(1, 10), 33))
	f.builder.PersistLayers(f.dag, 1, 8)

	leaders := f.builder.LeaderBlocks(1, 8)
	for _, leader := range leaders {
		// authority 0 is a bad node and never leads
		require.NotEqual(t, types.AuthorityIndex(0), leader.Author())
	}
	subDags := f.linear.HandleCommit(leaders)
	require.Len(t, subDags, 8)
	for i, subDag := range subDags {
		require.Equal(t, leaders[i].Reference(), subDag.Leader)
	}
}

func TestHandleCommitRecoveredDagState(t *testing.T) {
	f := newLinearizerFixture(t, 4)
	f.builder.PersistLayers(f.dag, 1, 10)
	leaders := f.builder.LeaderBlocks(1, 10)
	f.linear.HandleCommit(leaders[:5])

	recovered, err := core.NewDagState(f.committee, f.store, core.DefaultDagStateConfig())
	require.NoError(t, err)
	subDags := NewLinearizer(recovered).HandleCommit(leaders[5:])
	require.Len(t, subDags, 5)
	require.Equal(t, types.CommitIndex(6), subDags[0].CommitIndex)
	require.Len(t, subDags[0].Blocks, 4)
}
