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
package core

import (
	"testing"

	"github.com/annchain/dagcommit/committee"
	"github.com/annchain/dagcommit/ogdb"
	"github.com/annchain/dagcommit/types"
	"github.com/stretchr/testify/require"
)

type roundRobin struct {
	size int
}

func (r roundRobin) ElectLeader(round types.Round, offset uint32) types.AuthorityIndex {
	return types.AuthorityIndex((uint32(round) + offset) % uint32(r.size))
}

func newTestDagState(t *testing.T, size int, store ogdb.Store) (*committee.Committee, *DagState) {
	c := committee.NewEqualStake(size)
	dag, err := NewDagState(c, store, DefaultDagStateConfig())
	require.NoError(t, err)
	return c, dag
}

func commitFor(t *testing.T, index types.CommitIndex, prev types.CommitDigest, ts uint64, leader types.BlockRef, blocks []types.BlockRef) *types.TrustedCommit {
	commit := types.NewCommit(index, prev, ts, leader, blocks)
	serialized, err := commit.Serialize()
	require.NoError(t, err)
	return types.NewTrustedCommit(commit, serialized)
}

func TestDagStateGenesis(t *testing.T) {
	c, dag := newTestDagState(t, 4, ogdb.NewMemStore())
	dag.RLock()
	defer dag.RUnlock()

	for _, g := range GenesisBlocks(c) {
		require.True(t, dag.ContainsBlock(g.Reference()))
		require.Equal(t, g, dag.GetBlock(g.Reference()))
	}
	require.Equal(t, types.CommitIndex(0), dag.LastCommitIndex())
	require.Equal(t, types.CommitDigestMin, dag.LastCommitDigest())
	require.Equal(t, uint64(0), dag.LastCommitTimestampMs())
	require.Equal(t, []types.Round{0, 0, 0, 0}, dag.LastCommittedRounds())
}

func TestDagStateAcceptBlocks(t *testing.T) {
	c, dag := newTestDagState(t, 4, ogdb.NewMemStore())
	builder := NewDagBuilder(c, roundRobin{size: 4})
	blocks := builder.Blocks(1, 3)

	dag.Lock()
	dag.AcceptBlocks(blocks)
	dag.AcceptBlock(blocks[0])
	pending, _ := dag.PendingWrites()
	dag.Unlock()
	require.Equal(t, len(blocks), pending)

	dag.RLock()
	defer dag.RUnlock()
	require.Equal(t, types.Round(3), dag.HighestAcceptedRound())
	for _, b := range blocks {
		require.True(t, dag.ContainsBlock(b.Reference()))
	}
	cached := dag.GetCachedBlocks(2, 2)
	require.Len(t, cached, 2)
	require.Equal(t, types.Round(2), cached[0].Round())
	require.Equal(t, types.Round(3), cached[1].Round())

	missing := types.NewBlockRef(1, 9, types.BlockDigestMin)
	require.False(t, dag.ContainsBlock(missing))
	require.Nil(t, dag.GetBlock(missing))
	require.Len(t, dag.GetUncommittedBlocksAtRound(2), 4)
}

func TestDagStateRejectsGenesis(t *testing.T) {
	c, dag := newTestDagState(t, 4, ogdb.NewMemStore())
	require.Panics(t, func() {
		dag.AcceptBlock(GenesisBlocks(c)[0])
	})
}

func TestDagStateAddCommit(t *testing.T) {
	c, dag := newTestDagState(t, 4, ogdb.NewMemStore())
	builder := NewDagBuilder(c, roundRobin{size: 4})
	builder.PersistLayers(dag, 1, 4)

	dag.Lock()
	defer dag.Unlock()

	leader := builder.LeaderBlock(2)
	first := commitFor(t, 1, types.CommitDigestMin, leader.TimestampMs(), leader.Reference(),
		[]types.BlockRef{types.NewBlockRef(0, 1, builder.Blocks(1, 1)[0].Digest()), leader.Reference()})
	dag.AddCommit(first)
	require.Equal(t, types.CommitIndex(1), dag.LastCommitIndex())
	require.Equal(t, first.Digest(), dag.LastCommitDigest())
	require.Equal(t, []types.Round{1, 0, 2, 0}, dag.LastCommittedRounds())

	require.Panics(t, func() {
		dag.AddCommit(commitFor(t, 3, first.Digest(), 5000, leader.Reference(), nil))
	})
	require.Panics(t, func() {
		dag.AddCommit(commitFor(t, 2, first.Digest(), 1000, leader.Reference(), nil))
	})

	rounds := dag.LastCommittedRounds()
	rounds[0] = 100
	require.Equal(t, types.Round(1), dag.LastCommittedRounds()[0])
}

func TestDagStateFlushEvicts(t *testing.T) {
	store := ogdb.NewMemStore()
	c := committee.NewEqualStake(4)
	config := DefaultDagStateConfig()
	config.CachedRounds = 2
	dag, err := NewDagState(c, store, config)
	require.NoError(t, err)

	builder := NewDagBuilder(c, roundRobin{size: 4})
	builder.PersistLayers(dag, 1, 6)

	var refs []types.BlockRef
	for _, b := range builder.Blocks(1, 5) {
		refs = append(refs, b.Reference())
	}
	leader := builder.LeaderBlock(5)

	dag.Lock()
	dag.AddCommit(commitFor(t, 1, types.CommitDigestMin, leader.TimestampMs(), leader.Reference(), refs))
	dag.Flush()
	dag.Unlock()

	dag.RLock()
	defer dag.RUnlock()
	// rounds 1..3 fall out of memory but stay readable through the store
	require.Len(t, dag.GetCachedBlocks(0, 1), 3)
	old := builder.Blocks(1, 1)[0]
	require.Equal(t, old.Digest(), dag.GetBlock(old.Reference()).Digest())

	last, err := store.ReadLastCommit()
	require.NoError(t, err)
	require.Equal(t, types.CommitIndex(1), last.Index)
}

func TestDagStateFlushStorageFailure(t *testing.T) {
	store := ogdb.NewMemStore()
	c, dag := newTestDagState(t, 4, store)
	builder := NewDagBuilder(c, roundRobin{size: 4})

	dag.Lock()
	defer dag.Unlock()
	dag.AcceptBlocks(builder.Blocks(1, 1))
	require.NoError(t, store.Close())
	require.Panics(t, func() { dag.Flush() })
}

func TestDagStateAcceptBlocksSkipsStore(t *testing.T) {
	store := ogdb.NewMemStore()
	c, dag := newTestDagState(t, 4, store)
	builder := NewDagBuilder(c, roundRobin{size: 4})
	require.NoError(t, store.Close())

	dag.Lock()
	defer dag.Unlock()
	blocks := builder.Blocks(1, 2)
	require.NotPanics(t, func() {
		dag.AcceptBlocks(blocks)
		dag.AcceptBlocks(blocks)
	})
	pending, _ := dag.PendingWrites()
	require.Equal(t, len(blocks), pending)
	require.Equal(t, types.Round(2), dag.HighestAcceptedRound())
}

func TestDagStateRecover(t *testing.T) {
	store := ogdb.NewMemStore()
	c, dag := newTestDagState(t, 4, store)
	builder := NewDagBuilder(c, roundRobin{size: 4})
	builder.PersistLayers(dag, 1, 3)

	var refs []types.BlockRef
	for _, b := range builder.Blocks(1, 2) {
		refs = append(refs, b.Reference())
	}
	leader := builder.LeaderBlock(2)
	commit := commitFor(t, 1, types.CommitDigestMin, leader.TimestampMs(), leader.Reference(), refs)
	dag.Lock()
	dag.AddCommit(commit)
	dag.Flush()
	dag.Unlock()

	recovered, err := NewDagState(c, store, DefaultDagStateConfig())
	require.NoError(t, err)
	recovered.RLock()
	defer recovered.RUnlock()
	require.Equal(t, types.CommitIndex(1), recovered.LastCommitIndex())
	require.Equal(t, commit.Digest(), recovered.LastCommitDigest())
	require.Equal(t, []types.Round{2, 2, 2, 2}, recovered.LastCommittedRounds())
	require.Equal(t, types.Round(3), recovered.HighestAcceptedRound())
	for _, b := range builder.Blocks(1, 3) {
		require.True(t, recovered.ContainsBlock(b.Reference()))
	}
}
