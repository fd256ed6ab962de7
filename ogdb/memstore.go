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
package ogdb

import (
	"sort"
	"sync"

	"github.com/annchain/dagcommit/types"
)

// MemStore keeps everything in memory. It is meant for tests and for
// nodes that do not need to survive a restart.
type MemStore struct {
	mu      sync.RWMutex
	blocks  map[types.BlockRef]*types.VerifiedBlock
	commits map[types.CommitIndex]*types.TrustedCommit
	last    types.CommitIndex
	closed  bool
}

func NewMemStore() *MemStore {
	return &MemStore{
		blocks:  make(map[types.BlockRef]*types.VerifiedBlock),
		commits: make(map[types.CommitIndex]*types.TrustedCommit),
	}
}

func (s *MemStore) Write(blocks []*types.VerifiedBlock, commits []*types.TrustedCommit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, b := range blocks {
		s.blocks[b.Reference()] = b
	}
	for _, c := range commits {
		s.commits[c.Index] = c
		if c.Index > s.last {
			s.last = c.Index
		}
	}
	return nil
}

func (s *MemStore) ReadBlocks(refs []types.BlockRef) ([]*types.VerifiedBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	result := make([]*types.VerifiedBlock, len(refs))
	for i, ref := range refs {
		result[i] = s.blocks[ref]
	}
	return result, nil
}

func (s *MemStore) ContainsBlocks(refs []types.BlockRef) ([]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	result := make([]bool, len(refs))
	for i, ref := range refs {
		_, result[i] = s.blocks[ref]
	}
	return result, nil
}

func (s *MemStore) ScanBlocksByAuthor(author types.AuthorityIndex, startRound types.Round) ([]*types.VerifiedBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	var result []*types.VerifiedBlock
	for ref, b := range s.blocks {
		if ref.Author == author && ref.Round >= startRound {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Reference().Compare(result[j].Reference()) < 0
	})
	return result, nil
}

func (s *MemStore) ReadLastCommit() (*types.TrustedCommit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.commits[s.last], nil
}

func (s *MemStore) ScanCommits(start types.CommitIndex) ([]*types.TrustedCommit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	var result []*types.TrustedCommit
	for index, c := range s.commits {
		if index >= start {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Index < result[j].Index
	})
	return result, nil
}

func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
