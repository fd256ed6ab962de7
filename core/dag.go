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
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/annchain/dagcommit/committee"
	"github.com/annchain/dagcommit/ogdb"
	"github.com/annchain/dagcommit/types"
	"github.com/annchain/gcache"
	log "github.com/sirupsen/logrus"
)

type DagStateConfig struct {
	// CachedRounds is how many rounds below an authority's last committed
	// round stay in memory after a flush.
	CachedRounds types.Round
	// BlockCacheSize bounds the read-through cache of blocks loaded back
	// from the store.
	BlockCacheSize              int
	BlockCacheExpirationSeconds int
}

func DefaultDagStateConfig() DagStateConfig {
	return DagStateConfig{
		CachedRounds:   50,
		BlockCacheSize: 10000,
	}
}

// DagState is the in-memory view of accepted blocks and of commit progress,
// backed by a Store.
//
// DagState does not lock itself. It embeds a RWMutex that callers must hold:
// RLock around reads, Lock around AcceptBlock(s), AddCommit and Flush.
type DagState struct {
	sync.RWMutex

	committee *committee.Committee
	store     ogdb.Store
	config    DagStateConfig

	genesis      map[types.BlockRef]*types.VerifiedBlock
	recentBlocks map[types.BlockRef]*types.VerifiedBlock
	// per author refs of recentBlocks
	recentRefs           []map[types.BlockRef]struct{}
	highestAcceptedRound types.Round

	lastCommit          *types.TrustedCommit
	lastCommittedRounds []types.Round

	blocksToWrite  []*types.VerifiedBlock
	commitsToWrite []*types.TrustedCommit

	blockCache gcache.Cache
}

// NewDagState recovers commit progress and recent blocks from store.
func NewDagState(c *committee.Committee, store ogdb.Store, config DagStateConfig) (*DagState, error) {
	if config.BlockCacheSize <= 0 {
		config.BlockCacheSize = DefaultDagStateConfig().BlockCacheSize
	}
	builder := gcache.New(config.BlockCacheSize).LRU()
	if config.BlockCacheExpirationSeconds > 0 {
		builder = builder.Expiration(time.Second * time.Duration(config.BlockCacheExpirationSeconds))
	}

	s := &DagState{
		committee:           c,
		store:               store,
		config:              config,
		genesis:             make(map[types.BlockRef]*types.VerifiedBlock),
		recentBlocks:        make(map[types.BlockRef]*types.VerifiedBlock),
		recentRefs:          make([]map[types.BlockRef]struct{}, c.Size()),
		lastCommittedRounds: make([]types.Round, c.Size()),
		blockCache:          builder.Build(),
	}
	for i := range s.recentRefs {
		s.recentRefs[i] = make(map[types.BlockRef]struct{})
	}
	for _, g := range GenesisBlocks(c) {
		s.genesis[g.Reference()] = g
	}

	if err := s.recover(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DagState) recover() error {
	last, err := s.store.ReadLastCommit()
	if err != nil {
		return fmt.Errorf("read last commit: %v", err)
	}
	if last != nil {
		commits, err := s.store.ScanCommits(1)
		if err != nil {
			return fmt.Errorf("scan commits: %v", err)
		}
		for _, commit := range commits {
			s.updateCommittedRounds(commit)
		}
		s.lastCommit = last
	}

	for i := range s.lastCommittedRounds {
		author := types.AuthorityIndex(i)
		var start types.Round
		if s.lastCommittedRounds[i] > s.config.CachedRounds {
			start = s.lastCommittedRounds[i] - s.config.CachedRounds
		}
		blocks, err := s.store.ScanBlocksByAuthor(author, start)
		if err != nil {
			return fmt.Errorf("scan blocks of authority %d: %v", author, err)
		}
		for _, b := range blocks {
			s.cacheBlock(b)
		}
	}

	log.WithFields(log.Fields{
		"lastCommitIndex":     s.LastCommitIndex(),
		"lastCommittedRounds": s.lastCommittedRounds,
		"recentBlocks":        len(s.recentBlocks),
	}).Info("dag state recovered")
	return nil
}

// AcceptBlock adds a block whose ancestors are already in the dag. Adding a
// known block is a no-op.
func (s *DagState) AcceptBlock(block *types.VerifiedBlock) {
	if block.Round() == 0 {
		panic(fmt.Sprintf("genesis block %s should not be accepted into the dag", block.Reference()))
	}
	ref := block.Reference()
	if _, ok := s.recentBlocks[ref]; ok {
		return
	}
	s.cacheBlock(block)
	s.blocksToWrite = append(s.blocksToWrite, block)
}

func (s *DagState) AcceptBlocks(blocks []*types.VerifiedBlock) {
	for _, b := range blocks {
		s.AcceptBlock(b)
	}
}

func (s *DagState) cacheBlock(block *types.VerifiedBlock) {
	ref := block.Reference()
	s.recentBlocks[ref] = block
	s.recentRefs[ref.Author][ref] = struct{}{}
	if ref.Round > s.highestAcceptedRound {
		s.highestAcceptedRound = ref.Round
	}
}

func (s *DagState) GetBlock(ref types.BlockRef) *types.VerifiedBlock {
	return s.GetBlocks([]types.BlockRef{ref})[0]
}

// GetBlocks returns one entry per ref, nil for blocks that are not in the
// dag. Memory is consulted first, then the block cache, then the store.
func (s *DagState) GetBlocks(refs []types.BlockRef) []*types.VerifiedBlock {
	blocks := make([]*types.VerifiedBlock, len(refs))
	var missing []types.BlockRef
	var missingIndex []int

	for i, ref := range refs {
		if b, ok := s.genesis[ref]; ok {
			blocks[i] = b
			continue
		}
		if b, ok := s.recentBlocks[ref]; ok {
			blocks[i] = b
			continue
		}
		if v, err := s.blockCache.GetIFPresent(ref); err == nil {
			blocks[i] = v.(*types.VerifiedBlock)
			continue
		}
		missing = append(missing, ref)
		missingIndex = append(missingIndex, i)
	}
	if len(missing) == 0 {
		return blocks
	}

	stored, err := s.store.ReadBlocks(missing)
	if err != nil {
		panic(fmt.Sprintf("failed to read blocks from storage: %v", err))
	}
	for i, b := range stored {
		if b == nil {
			continue
		}
		blocks[missingIndex[i]] = b
		if err := s.blockCache.Set(missing[i], b); err != nil {
			log.WithError(err).WithField("ref", missing[i]).Warn("failed to cache block")
		}
	}
	return blocks
}

func (s *DagState) ContainsBlock(ref types.BlockRef) bool {
	return s.ContainsBlocks([]types.BlockRef{ref})[0]
}

func (s *DagState) ContainsBlocks(refs []types.BlockRef) []bool {
	result := make([]bool, len(refs))
	var missing []types.BlockRef
	var missingIndex []int
	for i, ref := range refs {
		_, inGenesis := s.genesis[ref]
		_, inMemory := s.recentBlocks[ref]
		if inGenesis || inMemory {
			result[i] = true
			continue
		}
		missing = append(missing, ref)
		missingIndex = append(missingIndex, i)
	}
	if len(missing) == 0 {
		return result
	}
	stored, err := s.store.ContainsBlocks(missing)
	if err != nil {
		panic(fmt.Sprintf("failed to read blocks from storage: %v", err))
	}
	for i, found := range stored {
		result[missingIndex[i]] = found
	}
	return result
}

// GetCachedBlocks returns the in-memory blocks of author at or above start,
// ordered by round.
func (s *DagState) GetCachedBlocks(author types.AuthorityIndex, start types.Round) []*types.VerifiedBlock {
	var blocks []*types.VerifiedBlock
	for ref := range s.recentRefs[author] {
		if ref.Round >= start {
			blocks = append(blocks, s.recentBlocks[ref])
		}
	}
	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].Reference().Compare(blocks[j].Reference()) < 0
	})
	return blocks
}

// GetUncommittedBlocksAtRound returns the in-memory blocks of round whose
// authors have not committed that round yet.
func (s *DagState) GetUncommittedBlocksAtRound(round types.Round) []*types.VerifiedBlock {
	var blocks []*types.VerifiedBlock
	for author, refs := range s.recentRefs {
		if s.lastCommittedRounds[author] >= round {
			continue
		}
		for ref := range refs {
			if ref.Round == round {
				blocks = append(blocks, s.recentBlocks[ref])
			}
		}
	}
	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].Reference().Compare(blocks[j].Reference()) < 0
	})
	return blocks
}

func (s *DagState) HighestAcceptedRound() types.Round {
	return s.highestAcceptedRound
}

func (s *DagState) LastCommitIndex() types.CommitIndex {
	if s.lastCommit == nil {
		return 0
	}
	return s.lastCommit.Index
}

func (s *DagState) LastCommitDigest() types.CommitDigest {
	if s.lastCommit == nil {
		return types.CommitDigestMin
	}
	return s.lastCommit.Digest()
}

func (s *DagState) LastCommitTimestampMs() uint64 {
	if s.lastCommit == nil {
		return 0
	}
	return s.lastCommit.TimestampMs
}

func (s *DagState) LastCommit() *types.TrustedCommit {
	return s.lastCommit
}

// LastCommittedRounds returns a copy, indexed by AuthorityIndex.
func (s *DagState) LastCommittedRounds() []types.Round {
	rounds := make([]types.Round, len(s.lastCommittedRounds))
	copy(rounds, s.lastCommittedRounds)
	return rounds
}

// AddCommit buffers commit for the next Flush and raises the committed
// round of every author in it. Commits must arrive in index order with
// non-decreasing timestamps.
func (s *DagState) AddCommit(commit *types.TrustedCommit) {
	lastIndex := s.LastCommitIndex()
	if commit.Index != lastIndex+1 {
		panic(fmt.Sprintf("commit %d does not follow last commit %d", commit.Index, lastIndex))
	}
	if s.lastCommit != nil && commit.TimestampMs < s.lastCommit.TimestampMs {
		panic(fmt.Sprintf("commit %d timestamp %d is before last commit timestamp %d",
			commit.Index, commit.TimestampMs, s.lastCommit.TimestampMs))
	}
	s.updateCommittedRounds(commit)
	s.lastCommit = commit
	s.commitsToWrite = append(s.commitsToWrite, commit)
}

func (s *DagState) updateCommittedRounds(commit *types.TrustedCommit) {
	for _, ref := range commit.Blocks {
		if !s.committee.IsValidIndex(ref.Author) {
			panic(fmt.Sprintf("commit %d references block %s of unknown authority", commit.Index, ref))
		}
		if ref.Round > s.lastCommittedRounds[ref.Author] {
			s.lastCommittedRounds[ref.Author] = ref.Round
		}
	}
}

// Flush makes every buffered block and commit durable, then drops blocks
// that fell out of the cached window from memory. A storage failure is
// fatal.
func (s *DagState) Flush() {
	if len(s.blocksToWrite) == 0 && len(s.commitsToWrite) == 0 {
		return
	}
	if err := s.store.Write(s.blocksToWrite, s.commitsToWrite); err != nil {
		panic(fmt.Sprintf("failed to write to storage: %v", err))
	}
	log.WithField("blocks", len(s.blocksToWrite)).
		WithField("commits", len(s.commitsToWrite)).
		WithField("lastCommitIndex", s.LastCommitIndex()).
		Debug("dag state flushed")
	s.blocksToWrite = nil
	s.commitsToWrite = nil
	s.evictBlocks()
}

func (s *DagState) evictBlocks() {
	for author, refs := range s.recentRefs {
		committed := s.lastCommittedRounds[author]
		for ref := range refs {
			if ref.Round+s.config.CachedRounds <= committed {
				delete(refs, ref)
				delete(s.recentBlocks, ref)
			}
		}
	}
}

// PendingWrites reports how many blocks and commits wait for a Flush.
func (s *DagState) PendingWrites() (blocks int, commits int) {
	return len(s.blocksToWrite), len(s.commitsToWrite)
}
