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

	"github.com/annchain/dagcommit/core"
	"github.com/annchain/dagcommit/metrics"
	"github.com/annchain/dagcommit/types"
	mapset "github.com/deckarep/golang-set"
	"github.com/sirupsen/logrus"
)

// Linearizer turns decided leaders into commits. Each leader commits its
// causal history minus everything committed before.
//
// HandleCommit calls must not overlap.
type Linearizer struct {
	Logger  *logrus.Logger
	Metrics *metrics.Metrics

	dag *core.DagState
}

func NewLinearizer(dag *core.DagState) *Linearizer {
	return &Linearizer{
		Logger:  logrus.StandardLogger(),
		Metrics: metrics.NewUnregisteredMetrics(),
		dag:     dag,
	}
}

// HandleCommit linearizes leaders in the given order and returns one sub-dag
// per leader. The commits are durable when it returns.
func (l *Linearizer) HandleCommit(leaders []*types.VerifiedBlock) []*types.CommittedSubDag {
	var subDags []*types.CommittedSubDag

	for _, leader := range leaders {
		subDag, lastDigest := l.collectSubDag(leader)
		commit := types.NewCommit(subDag.CommitIndex, lastDigest, subDag.TimestampMs, leader.Reference(), subDag.References())
		serialized, err := commit.Serialize()
		if err != nil {
			panic(fmt.Sprintf("failed to serialize commit %s: %v", commit, err))
		}
		trusted := types.NewTrustedCommit(commit, serialized)

		l.dag.Lock()
		l.dag.AddCommit(trusted)
		l.dag.Unlock()

		l.Logger.WithFields(logrus.Fields{
			"index":  trusted.Index,
			"leader": trusted.Leader,
			"digest": trusted.Digest(),
			"blocks": len(trusted.Blocks),
		}).Debug("commit created")
		l.Logger.WithField("subdag", subDag).Trace("sub-dag committed")

		l.Metrics.CommittedSubDags.Inc()
		l.Metrics.CommittedBlocks.Add(float64(len(subDag.Blocks)))
		l.Metrics.SubDagSize.Observe(float64(len(subDag.Blocks)))
		l.Metrics.LastCommitIndex.Set(float64(subDag.CommitIndex))

		subDags = append(subDags, subDag)
	}

	if len(subDags) > 0 {
		l.dag.Lock()
		l.dag.Flush()
		l.dag.Unlock()
		l.Metrics.Flushes.Inc()
	}
	return subDags
}

// collectSubDag builds the sub-dag of leader on top of the last commit and
// returns it with the digest of that commit.
func (l *Linearizer) collectSubDag(leader *types.VerifiedBlock) (*types.CommittedSubDag, types.CommitDigest) {
	l.dag.RLock()
	defer l.dag.RUnlock()

	lastIndex := l.dag.LastCommitIndex()
	lastDigest := l.dag.LastCommitDigest()
	timestampMs := leader.TimestampMs()
	if last := l.dag.LastCommitTimestampMs(); last > timestampMs {
		timestampMs = last
	}
	blocks := l.causalHistory(leader, l.dag.LastCommittedRounds())

	subDag := types.NewCommittedSubDag(leader.Reference(), blocks, timestampMs, lastIndex+1)
	subDag.Sort()
	return subDag, lastDigest
}

// causalHistory walks the ancestors of leader, skipping blocks at or below
// their author's committed round. The caller holds the dag read lock.
func (l *Linearizer) causalHistory(leader *types.VerifiedBlock, committedRounds []types.Round) []*types.VerifiedBlock {
	visited := mapset.NewThreadUnsafeSet()
	visited.Add(leader.Reference())
	buffer := []*types.VerifiedBlock{leader}
	var toCommit []*types.VerifiedBlock

	for len(buffer) > 0 {
		block := buffer[len(buffer)-1]
		buffer = buffer[:len(buffer)-1]
		toCommit = append(toCommit, block)

		var refs []types.BlockRef
		for _, ancestor := range block.Ancestors() {
			if int(ancestor.Author) >= len(committedRounds) {
				panic(fmt.Sprintf("block %s references ancestor %s of unknown authority", block.Reference(), ancestor))
			}
			if visited.Contains(ancestor) || committedRounds[ancestor.Author] >= ancestor.Round {
				continue
			}
			visited.Add(ancestor)
			refs = append(refs, ancestor)
		}
		if len(refs) == 0 {
			continue
		}
		for i, ancestor := range l.dag.GetBlocks(refs) {
			if ancestor == nil {
				panic(fmt.Sprintf("missing ancestor %s of block %s", refs[i], block.Reference()))
			}
			buffer = append(buffer, ancestor)
		}
	}
	return toCommit
}
