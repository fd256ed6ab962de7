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

import "fmt"

// AuthorityIndex identifies a committee member. It is stable for an epoch.
type AuthorityIndex uint32

// Stake is the voting weight of an authority.
type Stake uint64

// Round is a DAG layer number.
type Round uint32

// Epoch groups rounds that share one committee.
type Epoch uint64

func (a AuthorityIndex) String() string {
	return fmt.Sprintf("[%d]", uint32(a))
}

func (a AuthorityIndex) Int() int {
	return int(a)
}
