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
	"testing"

	"github.com/annchain/dagcommit/committee"
	"github.com/annchain/dagcommit/types"
	"github.com/stretchr/testify/assert"
)

func TestGenesisBlocks(t *testing.T) {
	c := committee.NewEqualStake(7)
	blocks := GenesisBlocks(c)
	assert.Len(t, blocks, 7)
	for i, b := range blocks {
		assert.Equal(t, types.AuthorityIndex(i), b.Author())
		assert.Equal(t, types.Round(0), b.Round())
		assert.Empty(t, b.Ancestors())
	}
	// deterministic across calls
	assert.Equal(t, blocks[3].Digest(), GenesisBlocks(c)[3].Digest())
	assert.NotEqual(t, blocks[0].Digest(), blocks[1].Digest())
}
