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
package types

import (
	"fmt"
	"sort"
	"strings"
)

//go:generate msgp
//msgp:tuple Commit

// CommitIndex is the position of a commit in the commit sequence. The first
// commit has index 1.
type CommitIndex uint32

// Commit is the durable summary of one committed sub-dag. Commits form a
// hash chain through PreviousDigest.
type Commit struct {
	Index          CommitIndex
	PreviousDigest CommitDigest
	TimestampMs    uint64
	Leader         BlockRef
	Blocks         []BlockRef
}

func NewCommit(index CommitIndex, previousDigest CommitDigest, timestampMs uint64, leader BlockRef, blocks []BlockRef) *Commit {
	return &Commit{
		Index:          index,
		PreviousDigest: previousDigest,
		TimestampMs:    timestampMs,
		Leader:         leader,
		Blocks:         blocks,
	}
}

// Serialize returns the canonical byte form the commit digest is taken over.
func (c *Commit) Serialize() ([]byte, error) {
	return c.MarshalMsg(nil)
}

func (c *Commit) String() string {
	return fmt.Sprintf("Commit(%d, leader=%s, prev=%s, ts=%d, blocks=[%s])",
		c.Index, c.Leader, c.PreviousDigest, c.TimestampMs, BlockRefsToString(c.Blocks))
}

// TrustedCommit is a commit produced locally or loaded from storage, kept
// together with the bytes its digest was derived from.
type TrustedCommit struct {
	Commit
	serialized []byte
	digest     CommitDigest
}

// NewTrustedCommit wraps a commit with its already serialized form.
func NewTrustedCommit(commit *Commit, serialized []byte) *TrustedCommit {
	return &TrustedCommit{
		Commit:     *commit,
		serialized: serialized,
		digest:     digest(serialized),
	}
}

// ParseTrustedCommit re-parses bytes previously returned by Serialize.
func ParseTrustedCommit(serialized []byte) (*TrustedCommit, error) {
	var c Commit
	rest, err := c.UnmarshalMsg(serialized)
	if err != nil {
		return nil, fmt.Errorf("parse commit: %v", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("parse commit: %d trailing bytes", len(rest))
	}
	buf := make([]byte, len(serialized))
	copy(buf, serialized)
	return NewTrustedCommit(&c, buf), nil
}

func (c *TrustedCommit) Digest() CommitDigest { return c.digest }

func (c *TrustedCommit) Serialized() []byte { return c.serialized }

// CommitRange is the half-open interval [Start, End) of commit indices a set
// of reputation scores was computed over.
type CommitRange struct {
	Start CommitIndex
	End   CommitIndex
}

func NewCommitRange(start, end CommitIndex) CommitRange {
	return CommitRange{Start: start, End: end}
}

func (r CommitRange) Size() uint32 {
	if r.End < r.Start {
		return 0
	}
	return uint32(r.End - r.Start)
}

// IsZero reports whether r is the [0,0) range a brand new schedule starts from.
func (r CommitRange) IsZero() bool {
	return r.Start == 0 && r.End == 0
}

// IsNextRange reports whether next directly follows r and has the same length.
// Ranges are half-open, yet consecutive windows are numbered [1,10), [11,20).
func (r CommitRange) IsNextRange(next CommitRange) bool {
	return r.Size() == next.Size() && r.End+1 == next.Start
}

func (r CommitRange) String() string {
	return fmt.Sprintf("CommitRange(%d..%d)", r.Start, r.End)
}

// CommittedSubDag is the unit handed to execution: a leader and every block
// it newly commits.
type CommittedSubDag struct {
	Leader      BlockRef
	Blocks      []*VerifiedBlock
	TimestampMs uint64
	CommitIndex CommitIndex
}

func NewCommittedSubDag(leader BlockRef, blocks []*VerifiedBlock, timestampMs uint64, commitIndex CommitIndex) *CommittedSubDag {
	return &CommittedSubDag{
		Leader:      leader,
		Blocks:      blocks,
		TimestampMs: timestampMs,
		CommitIndex: commitIndex,
	}
}

// Sort orders blocks by reference: round, then author, then digest.
func (s *CommittedSubDag) Sort() {
	sort.SliceStable(s.Blocks, func(i, j int) bool {
		a, b := s.Blocks[i], s.Blocks[j]
		return a.Reference().Compare(b.Reference()) < 0
	})
}

func (s *CommittedSubDag) References() []BlockRef {
	refs := make([]BlockRef, 0, len(s.Blocks))
	for _, b := range s.Blocks {
		refs = append(refs, b.Reference())
	}
	return refs
}

func (s *CommittedSubDag) String() string {
	var refs []string
	for _, b := range s.Blocks {
		refs = append(refs, b.Reference().String())
	}
	return fmt.Sprintf("CommittedSubDag(leader=%s, index=%d, ts=%d, blocks=[%s])",
		s.Leader, s.CommitIndex, s.TimestampMs, strings.Join(refs, ", "))
}
