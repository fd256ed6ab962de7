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
	"errors"

	"github.com/annchain/dagcommit/types"
)

var ErrClosed = errors.New("store is closed")

// Store persists accepted blocks and commits. Implementations must make a
// Write durable before returning.
type Store interface {
	// Write stores blocks and commits in one atomic batch.
	Write(blocks []*types.VerifiedBlock, commits []*types.TrustedCommit) error

	// ReadBlocks returns one entry per ref, nil where the block is unknown.
	ReadBlocks(refs []types.BlockRef) ([]*types.VerifiedBlock, error)

	ContainsBlocks(refs []types.BlockRef) ([]bool, error)

	// ScanBlocksByAuthor returns blocks of author with round >= startRound,
	// ordered by round.
	ScanBlocksByAuthor(author types.AuthorityIndex, startRound types.Round) ([]*types.VerifiedBlock, error)

	// ReadLastCommit returns nil when no commit was ever written.
	ReadLastCommit() (*types.TrustedCommit, error)

	// ScanCommits returns commits with index >= start in index order.
	ScanCommits(start types.CommitIndex) ([]*types.TrustedCommit, error)

	Close() error
}
