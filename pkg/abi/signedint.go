// Copyright © 2022 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
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

package abi

import "math/big"

// fullBits256 is 2^256 - 1, the all-ones 256 bit mask.
var fullBits256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// oneMoreThanMaxUint256 is 2^256, used to take the modulus when folding
// a negative big.Int into its two's-complement representation.
var oneMoreThanMaxUint256 = new(big.Int).Lsh(big.NewInt(1), 256)

// topBit256 is 2^255 - if the raw 256 bit value is >= this, the value
// is negative in two's complement and must be folded back by
// subtracting 2^256.
var topBit256 = new(big.Int).Lsh(big.NewInt(1), 255)

// SerializeInt256TwosComplementBytes returns the 32-byte big-endian
// two's-complement representation of a signed integer of any width up
// to 256 bits - the representation used for every intN ABI value
// regardless of its declared width.
func SerializeInt256TwosComplementBytes(i *big.Int) []byte {
	b := new(big.Int).Set(i)
	if b.Sign() < 0 {
		b = new(big.Int).Add(b, oneMoreThanMaxUint256)
		b.And(b, fullBits256)
	}
	out := make([]byte, 32)
	b.FillBytes(out)
	return out
}

// ParseInt256TwosComplementBytes parses a 32-byte big-endian two's
// complement value back into a signed big.Int.
func ParseInt256TwosComplementBytes(b []byte) *big.Int {
	v := new(big.Int).SetBytes(b)
	if v.Cmp(topBit256) >= 0 {
		v = new(big.Int).Sub(v, oneMoreThanMaxUint256)
	}
	return v
}
