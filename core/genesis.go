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
	"github.com/annchain/dagcommit/committee"
	"github.com/annchain/dagcommit/types"
)

// GenesisBlocks returns one round 0 block per authority. They have no
// ancestors and are never committed; every node derives the same set from
// the committee alone.
func GenesisBlocks(c *committee.Committee) []*types.VerifiedBlock {
	var blocks []*types.VerifiedBlock
	for _, a := range c.Authorities() {
		block, err := types.NewVerifiedBlock(types.Block{
			Epoch:  c.Epoch(),
			Round:  0,
			Author: a.Index,
		})
		if err != nil {
			panic("failed to build genesis block: " + err.Error())
		}
		blocks = append(blocks, block)
	}
	return blocks
}
