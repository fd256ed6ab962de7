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
	"encoding/binary"

	"golang.org/x/crypto/chacha20"
)

const seedLength = 32

// seededRand is a deterministic generator over the chacha20 key stream. The
// same seed yields the same sequence on every platform.
type seededRand struct {
	cipher *chacha20.Cipher
	buf    [8]byte
}

func newSeededRand(seed [seedLength]byte) *seededRand {
	cipher, err := chacha20.NewUnauthenticatedCipher(seed[:], make([]byte, chacha20.NonceSize))
	if err != nil {
		// key and nonce sizes are fixed
		panic(err)
	}
	return &seededRand{cipher: cipher}
}

func (r *seededRand) Uint64() uint64 {
	r.buf = [8]byte{}
	r.cipher.XORKeyStream(r.buf[:], r.buf[:])
	return binary.LittleEndian.Uint64(r.buf[:])
}

// Uint64n returns a uniform value in [0, n). n must be positive.
func (r *seededRand) Uint64n(n uint64) uint64 {
	if n == 0 {
		panic("Uint64n with n == 0")
	}
	// values below threshold would bias the modulo
	threshold := -n % n
	for {
		v := r.Uint64()
		if v >= threshold {
			return v % n
		}
	}
}

func roundSeed(round uint32) [seedLength]byte {
	var seed [seedLength]byte
	binary.LittleEndian.PutUint32(seed[seedLength-4:], round)
	return seed
}

func swapSeed(round uint32, offset uint32) [seedLength]byte {
	var seed [seedLength]byte
	binary.LittleEndian.PutUint32(seed[seedLength-8:seedLength-4], round)
	binary.LittleEndian.PutUint32(seed[seedLength-4:], offset)
	return seed
}
