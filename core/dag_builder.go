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

	"github.com/annchain/dagcommit/committee"
	"github.com/annchain/dagcommit/types"
)

// LeaderElector picks the leader slot of a round.
type LeaderElector interface {
	ElectLeader(round types.Round, offset uint32) types.AuthorityIndex
}

// DagBuilder generates fully connected dags: every block of a round has all
// blocks of the previous round as ancestors. It is used by replay and tests.
type DagBuilder struct {
	committee *committee.Committee
	elector   LeaderElector

	// TimestampMs gives the timestamp of blocks at a round.
	TimestampMs func(round types.Round) uint64

	layers [][]*types.VerifiedBlock
	byRef  map[types.BlockRef]*types.VerifiedBlock
}

func NewDagBuilder(c *committee.Committee, elector LeaderElector) *DagBuilder {
	genesis := GenesisBlocks(c)
	b := &DagBuilder{
		committee: c,
		elector:   elector,
		TimestampMs: func(round types.Round) uint64 {
			return uint64(round) * 1000
		},
		layers: [][]*types.VerifiedBlock{genesis},
		byRef:  make(map[types.BlockRef]*types.VerifiedBlock),
	}
	for _, g := range genesis {
		b.byRef[g.Reference()] = g
	}
	return b
}

// Layers builds every round up to and including to. Rounds already built
// are kept.
func (b *DagBuilder) Layers(to types.Round) *DagBuilder {
	for r := types.Round(len(b.layers)); r <= to; r++ {
		parents := b.layers[r-1]
		ancestors := make([]types.BlockRef, 0, len(parents))
		for _, p := range parents {
			ancestors = append(ancestors, p.Reference())
		}
		layer := make([]*types.VerifiedBlock, 0, b.committee.Size())
		for _, a := range b.committee.Authorities() {
			block, err := types.NewVerifiedBlock(types.Block{
				Epoch:       b.committee.Epoch(),
				Round:       r,
				Author:      a.Index,
				TimestampMs: b.TimestampMs(r),
				Ancestors:   ancestors,
			})
			if err != nil {
				panic(fmt.Sprintf("failed to build block at round %d: %v", r, err))
			}
			layer = append(layer, block)
			b.byRef[block.Reference()] = block
		}
		b.layers = append(b.layers, layer)
	}
	return b
}

// Blocks returns the blocks of rounds [from, to] ordered by round then author.
func (b *DagBuilder) Blocks(from, to types.Round) []*types.VerifiedBlock {
	b.Layers(to)
	var blocks []*types.VerifiedBlock
	for r := from; r <= to; r++ {
		blocks = append(blocks, b.layers[r]...)
	}
	return blocks
}

func (b *DagBuilder) Block(ref types.BlockRef) *types.VerifiedBlock {
	return b.byRef[ref]
}

func (b *DagBuilder) LeaderBlock(round types.Round) *types.VerifiedBlock {
	b.Layers(round)
	leader := b.elector.ElectLeader(round, 0)
	return b.layers[round][leader]
}

func (b *DagBuilder) LeaderBlocks(from, to types.Round) []*types.VerifiedBlock {
	var leaders []*types.VerifiedBlock
	for r := from; r <= to; r++ {
		leaders = append(leaders, b.LeaderBlock(r))
	}
	return leaders
}

// PersistLayers accepts the blocks of rounds [from, to] into dag and
// flushes them.
func (b *DagBuilder) PersistLayers(dag *DagState, from, to types.Round) {
	if from == 0 {
		from = 1
	}
	blocks := b.Blocks(from, to)
	dag.Lock()
	defer dag.Unlock()
	dag.AcceptBlocks(blocks)
	dag.Flush()
}
