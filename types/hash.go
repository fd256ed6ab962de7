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
	"bytes"

	"github.com/annchain/dagcommit/common/hexutil"
	"golang.org/x/crypto/blake2b"
)

// DigestLength is the size of block and commit digests in bytes.
const DigestLength = 32

// BlockDigest is the blake2b-256 hash of a serialized block.
type BlockDigest [DigestLength]byte

// CommitDigest is the blake2b-256 hash of a serialized commit.
type CommitDigest [DigestLength]byte

var (
	BlockDigestMin  = BlockDigest{}
	CommitDigestMin = CommitDigest{}
)

func (d BlockDigest) Bytes() []byte { return d[:] }

func (d BlockDigest) Hex() string { return hexutil.ToFormalHex(d[:]) }

// String prints a shortened digest, enough to tell blocks apart in logs.
func (d BlockDigest) String() string { return hexutil.ToBriefHex(d[:], 8) }

func (d BlockDigest) Compare(o BlockDigest) int { return bytes.Compare(d[:], o[:]) }

func (d CommitDigest) Bytes() []byte { return d[:] }

func (d CommitDigest) Hex() string { return hexutil.ToFormalHex(d[:]) }

func (d CommitDigest) String() string { return hexutil.ToBriefHex(d[:], 8) }

func digest(data []byte) [DigestLength]byte {
	return blake2b.Sum256(data)
}
