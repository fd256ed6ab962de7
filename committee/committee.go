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
package committee

import (
	"errors"
	"fmt"

	"github.com/annchain/dagcommit/types"
)

var (
	ErrEmptyCommittee = errors.New("committee has no authorities")
	ErrZeroStake      = errors.New("committee total stake is zero")
)

// Authority is a committee member as seen by consensus. Hostname is only
// used for logging and debugging.
type Authority struct {
	Hostname string      `mapstructure:"hostname"`
	Stake    types.Stake `mapstructure:"stake"`
}

// IndexedAuthority pairs an authority with its index in the committee.
type IndexedAuthority struct {
	Index types.AuthorityIndex
	Authority
}

// Committee is the read-only validator set of one epoch.
type Committee struct {
	epoch       types.Epoch
	authorities []Authority
	totalStake  types.Stake
	// f+1 and 2f+1 by stake
	validityThreshold types.Stake
	quorumThreshold   types.Stake
}

func NewCommittee(epoch types.Epoch, authorities []Authority) (*Committee, error) {
	if len(authorities) == 0 {
		return nil, ErrEmptyCommittee
	}
	var total types.Stake
	for _, a := range authorities {
		total += a.Stake
	}
	if total == 0 {
		return nil, ErrZeroStake
	}
	members := make([]Authority, len(authorities))
	copy(members, authorities)

	faultTolerance := (total - 1) / 3
	return &Committee{
		epoch:             epoch,
		authorities:       members,
		totalStake:        total,
		validityThreshold: faultTolerance + 1,
		quorumThreshold:   total - faultTolerance,
	}, nil
}

// NewEqualStake builds a committee of size authorities with stake 1 each,
// named test-0, test-1 and so on.
func NewEqualStake(size int) *Committee {
	authorities := make([]Authority, size)
	for i := range authorities {
		authorities[i] = Authority{
			Hostname: fmt.Sprintf("test-%d", i),
			Stake:    1,
		}
	}
	c, err := NewCommittee(0, authorities)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Committee) Epoch() types.Epoch {
	return c.epoch
}

func (c *Committee) Size() int {
	return len(c.authorities)
}

func (c *Committee) TotalStake() types.Stake {
	return c.totalStake
}

func (c *Committee) ValidityThreshold() types.Stake {
	return c.validityThreshold
}

func (c *Committee) QuorumThreshold() types.Stake {
	return c.quorumThreshold
}

func (c *Committee) IsValidIndex(index types.AuthorityIndex) bool {
	return int(index) < len(c.authorities)
}

// Stake panics on an index outside the committee.
func (c *Committee) Stake(index types.AuthorityIndex) types.Stake {
	return c.Authority(index).Stake
}

func (c *Committee) Authority(index types.AuthorityIndex) Authority {
	if !c.IsValidIndex(index) {
		panic(fmt.Sprintf("authority index %d out of committee of size %d", index, len(c.authorities)))
	}
	return c.authorities[index]
}

// Authorities lists members in index order.
func (c *Committee) Authorities() []IndexedAuthority {
	result := make([]IndexedAuthority, 0, len(c.authorities))
	for i, a := range c.authorities {
		result = append(result, IndexedAuthority{Index: types.AuthorityIndex(i), Authority: a})
	}
	return result
}

func (c *Committee) String() string {
	return fmt.Sprintf("Committee(epoch=%d, size=%d, stake=%d)", c.epoch, len(c.authorities), c.totalStake)
}
