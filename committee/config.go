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
	"fmt"

	"github.com/annchain/dagcommit/types"
	"github.com/spf13/viper"
)

// Load reads the committee from the "committee" section of v:
//
//	[committee]
//	epoch = 0
//	[[committee.authorities]]
//	hostname = "node-0"
//	stake = 1
//
// When no authorities are configured, committee.size equal-stake test
// authorities are generated instead.
func Load(v *viper.Viper) (*Committee, error) {
	var authorities []Authority
	if err := v.UnmarshalKey("committee.authorities", &authorities); err != nil {
		return nil, fmt.Errorf("read committee.authorities: %v", err)
	}
	if len(authorities) == 0 {
		size := v.GetInt("committee.size")
		if size <= 0 {
			return nil, ErrEmptyCommittee
		}
		for i := 0; i < size; i++ {
			authorities = append(authorities, Authority{
				Hostname: fmt.Sprintf("node-%d", i),
				Stake:    1,
			})
		}
	}
	return NewCommittee(types.Epoch(v.GetUint64("committee.epoch")), authorities)
}
