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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeededRandDeterministic(t *testing.T) {
	a := newSeededRand(roundSeed(42))
	b := newSeededRand(roundSeed(42))
	c := newSeededRand(roundSeed(43))

	same := true
	for i := 0; i < 16; i++ {
		va, vb, vc := a.Uint64(), b.Uint64(), c.Uint64()
		assert.Equal(t, va, vb)
		if va != vc {
			same = false
		}
	}
	assert.False(t, same)
}

func TestSeededRandUint64n(t *testing.T) {
	r := newSeededRand(swapSeed(7, 0))
	counts := make([]int, 5)
	for i := 0; i < 5000; i++ {
		v := r.Uint64n(5)
		assert.True(t, v < 5)
		counts[v]++
	}
	for _, n := range counts {
		assert.True(t, n > 800 && n < 1200, "skewed counts %v", counts)
	}
	assert.Equal(t, uint64(0), r.Uint64n(1))
	assert.Panics(t, func() { r.Uint64n(0) })
}

func TestSeeds(t *testing.T) {
	seed := roundSeed(0x01020304)
	assert.Equal(t, []byte{4, 3, 2, 1}, seed[28:])
	for _, b := range seed[:28] {
		assert.Equal(t, byte(0), b)
	}

	seed = swapSeed(0x01020304, 0x0a0b0c0d)
	assert.Equal(t, []byte{4, 3, 2, 1}, seed[24:28])
	assert.Equal(t, []byte{0x0d, 0x0c, 0x0b, 0x0a}, seed[28:])
	// round only seeds differ from swap seeds of the same round
	assert.NotEqual(t, roundSeed(5), swapSeed(5, 0))
}
