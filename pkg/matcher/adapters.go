// Copyright © 2024 Kaleido, Inc.
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

package matcher

import (
	"github.com/evmetl/evmetl/pkg/records"
)

// LogKey adapts a RawLog into the Keyed shape the join algorithms need:
// topic0 is the event hash. A log with no topic0 (an anonymous event)
// never matches - its HashHex is empty, which the index never contains.
type LogKey struct{ Log *records.RawLog }

func (k LogKey) HashHex() string {
	if k.Log.Topic0 == nil {
		return ""
	}
	return k.Log.Topic0.String()
}

func (k LogKey) AddressHex() string { return k.Log.Address.String() }

// TraceKey adapts a RawTrace into the Keyed shape: the 4-byte function
// selector is the hash, action_to is the address.
type TraceKey struct{ Trace *records.RawTrace }

func (k TraceKey) HashHex() string {
	return "0x" + hexEncode(k.Trace.Selector[:])
}

func (k TraceKey) AddressHex() string { return k.Trace.ActionTo.String() }

func hexEncode(b []byte) string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexdigits[c>>4]
		out[i*2+1] = hexdigits[c&0xf]
	}
	return string(out)
}

// LogKeys adapts a slice of RawLog into Keyed for Match.
func LogKeys(logs []*records.RawLog) []Keyed {
	out := make([]Keyed, len(logs))
	for i, l := range logs {
		out[i] = LogKey{Log: l}
	}
	return out
}

// TraceKeys adapts a slice of RawTrace into Keyed for Match.
func TraceKeys(traces []*records.RawTrace) []Keyed {
	out := make([]Keyed, len(traces))
	for i, tr := range traces {
		out[i] = TraceKey{Trace: tr}
	}
	return out
}
