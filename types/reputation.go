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
)

// ReputationScores holds one score per authority, indexed by AuthorityIndex,
// computed over CommitRange.
type ReputationScores struct {
	ScoresPerAuthority []uint64
	CommitRange        CommitRange
}

func NewReputationScores(commitRange CommitRange, scores []uint64) ReputationScores {
	return ReputationScores{
		ScoresPerAuthority: scores,
		CommitRange:        commitRange,
	}
}

type AuthorityScore struct {
	Authority AuthorityIndex
	Score     uint64
}

// AuthoritiesByScoreDesc sorts authorities by score, highest first. Equal
// scores are broken by the higher authority index first so every node gets
// the same order.
func (r ReputationScores) AuthoritiesByScoreDesc() []AuthorityScore {
	authorities := make([]AuthorityScore, 0, len(r.ScoresPerAuthority))
	for i, score := range r.ScoresPerAuthority {
		authorities = append(authorities, AuthorityScore{Authority: AuthorityIndex(i), Score: score})
	}
	sort.Slice(authorities, func(i, j int) bool {
		if authorities[i].Score != authorities[j].Score {
			return authorities[i].Score > authorities[j].Score
		}
		return authorities[i].Authority > authorities[j].Authority
	})
	return authorities
}

func (r ReputationScores) String() string {
	return fmt.Sprintf("ReputationScores(%s, %v)", r.CommitRange, r.ScoresPerAuthority)
}
