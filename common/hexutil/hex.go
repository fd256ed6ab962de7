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
package hexutil

import "encoding/hex"

// FromHex returns the bytes represented by the hexadecimal string s.
func FromHex(s string) ([]byte, error) {
	if len(s) > 1 {
		if s[0:2] == "0x" || s[0:2] == "0X" {
			s = s[2:]
		}
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return hex.DecodeString(s)
}

func ToHex(b []byte) string {
	hexstr := hex.EncodeToString(b)
	if len(hexstr) == 0 {
		hexstr = "0"
	}
	return hexstr
}

func ToFormalHex(b []byte) string {
	return "0x" + ToHex(b)
}

// ToBriefHex keeps the first and last maxLen/2 bytes.
func ToBriefHex(bytes []byte, maxLen int) string {
	if maxLen >= len(bytes) {
		return hex.EncodeToString(bytes)
	}
	half := maxLen / 2
	return hex.EncodeToString(bytes[:half]) + ".." + hex.EncodeToString(bytes[len(bytes)-half:])
}
