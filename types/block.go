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
	"strings"
)

//go:generate msgp
//msgp:tuple BlockRef Block

// BlockRef uniquely identifies a block: author, round and content digest.
type BlockRef struct {
	Author AuthorityIndex
	Round  Round
	Digest BlockDigest
}

func NewBlockRef(author AuthorityIndex, round Round, digest BlockDigest) BlockRef {
	return BlockRef{Author: author, Round: round, Digest: digest}
}

// Compare orders refs by round, then author, then digest.
func (r BlockRef) Compare(o BlockRef) int {
	switch {
	case r.Round < o.Round:
		return -1
	case r.Round > o.Round:
		return 1
	case r.Author < o.Author:
		return -1
	case r.Author > o.Author:
		return 1
	}
	return r.Digest.Compare(o.Digest)
}

func (r BlockRef) String() string {
	return fmt.Sprintf("B%d(%d,%s)", r.Round, r.Author, r.Digest)
}

func BlockRefsToString(refs []BlockRef) string {
	var strs []string
	for _, v := range refs {
		strs = append(strs, v.String())
	}
	return strings.Join(strs, ", ")
}

// Block is the unsigned content proposed by an authority at a round.
type Block struct {
	Epoch       Epoch
	Round       Round
	Author      AuthorityIndex
	TimestampMs uint64
	Ancestors   []BlockRef
	Payload     []byte
}

// VerifiedBlock is a block that already passed signature and structure
// checks upstream. It is immutable; accessors return copies of slices.
type VerifiedBlock struct {
	block      Block
	serialized []byte
	digest     BlockDigest
}

// NewVerifiedBlock serializes b and derives its digest. The caller vouches
// that b has been verified.
func NewVerifiedBlock(b Block) (*VerifiedBlock, error) {
	serialized, err := b.MarshalMsg(nil)
	if err != nil {
		return nil, fmt.Errorf("serialize block: %v", err)
	}
	return &VerifiedBlock{
		block:      b,
		serialized: serialized,
		digest:     digest(serialized),
	}, nil
}

// ParseVerifiedBlock restores a block from its serialized form, as written
// by a store.
func ParseVerifiedBlock(serialized []byte) (*VerifiedBlock, error) {
	var b Block
	rest, err := b.UnmarshalMsg(serialized)
	if err != nil {
		return nil, fmt.Errorf("parse block: %v", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("parse block: %d trailing bytes", len(rest))
	}
	buf := make([]byte, len(serialized))
	copy(buf, serialized)
	return &VerifiedBlock{
		block:      b,
		serialized: buf,
		digest:     digest(buf),
	}, nil
}

func (b *VerifiedBlock) Reference() BlockRef {
	return BlockRef{Author: b.block.Author, Round: b.block.Round, Digest: b.digest}
}

func (b *VerifiedBlock) Digest() BlockDigest { return b.digest }

func (b *VerifiedBlock) Epoch() Epoch { return b.block.Epoch }

func (b *VerifiedBlock) Round() Round { return b.block.Round }

func (b *VerifiedBlock) Author() AuthorityIndex { return b.block.Author }

func (b *VerifiedBlock) TimestampMs() uint64 { return b.block.TimestampMs }

func (b *VerifiedBlock) Ancestors() []BlockRef {
	ancestors := make([]BlockRef, len(b.block.Ancestors))
	copy(ancestors, b.block.Ancestors)
	return ancestors
}

func (b *VerifiedBlock) Payload() []byte {
	payload := make([]byte, len(b.block.Payload))
	copy(payload, b.block.Payload)
	return payload
}

func (b *VerifiedBlock) Serialized() []byte { return b.serialized }

func (b *VerifiedBlock) String() string {
	return fmt.Sprintf("%s ts=%d ancestors=[%s]", b.Reference(), b.block.TimestampMs, BlockRefsToString(b.block.Ancestors))
}
