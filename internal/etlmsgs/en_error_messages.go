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

package etlmsgs

import "github.com/hyperledger/firefly-common/pkg/i18n"

var ffe = i18n.FFE

//revive:disable
var (
	// configuration
	MsgConfigFileMissing   = ffe("FF30001", "Configuration file not found: %s")
	MsgConfigParseFailed   = ffe("FF30002", "Failed to parse configuration file: %s")
	MsgConfigInvalidValue  = ffe("FF30003", "Invalid value for configuration key '%s': %s")
	MsgConfigNotLoaded     = ffe("FF30004", "Configuration accessed before it was loaded")

	// I/O
	MsgReadDirFailed    = ffe("FF30010", "Failed to list directory: %s")
	MsgReadFileFailed   = ffe("FF30011", "Failed to read file: %s")
	MsgWriteFileFailed  = ffe("FF30012", "Failed to write file: %s")
	MsgRenameFileFailed = ffe("FF30013", "Failed to rename temporary output file %s to %s")
	MsgOpenFileFailed   = ffe("FF30014", "Failed to open file: %s")

	// ABI parse errors
	MsgInvalidABIJSON        = ffe("FF30020", "Invalid ABI JSON in %s: %s")
	MsgUnsupportedElementaryType = ffe("FF30021", "Unsupported elementary type '%s' in '%s'")
	MsgMalformedType         = ffe("FF30022", "Malformed ABI type string: %s")
	MsgMissingTupleComponents = ffe("FF30023", "Tuple type '%s' is missing component definitions")
	MsgNonHexStemSkipped     = ffe("FF30024", "Skipping ABI file with non hex-address stem: %s")

	// matcher
	MsgUnknownMatchAlgorithm = ffe("FF30030", "Unknown match algorithm: %s")

	// decode errors
	MsgABIDataTooShort       = ffe("FF30040", "ABI data too short: need %d bytes at offset %d, have %d")
	MsgABIOffsetOutOfRange   = ffe("FF30041", "ABI dynamic offset %d out of range (data length %d)")
	MsgABILengthOutOfRange   = ffe("FF30042", "ABI dynamic length %d out of range (data length %d)")
	MsgTopicCountMismatch    = ffe("FF30043", "Log has %d topics but %d indexed parameters are declared")
	MsgSelectorTooShort      = ffe("FF30044", "Call data shorter than the 4-byte function selector (%d bytes)")
	MsgDecodeValueFailed     = ffe("FF30045", "Failed to decode value for parameter '%s' (%s): %s")

	// orchestrator / panic containment
	MsgChunkPanicRecovered = ffe("FF30050", "Recovered from panic while decoding chunk %d of %s: %v")
	MsgFilePanicRecovered  = ffe("FF30051", "Recovered from panic while decoding file %s: %v")
	MsgFileDecodeFailed    = ffe("FF30052", "Failed to decode file %s: %s")

	// HTTP ABI registry fetch
	MsgABIFetchRequestFailed = ffe("FF30060", "ABI registry request failed for address %s")
	MsgABIFetchBadStatus     = ffe("FF30061", "ABI registry returned status %d for address %s")

	// numeric parsing (ethtypes)
	MsgInvalidNumberString     = ffe("FF30070", "Invalid number string: %s")
	MsgInvalidIntPrecisionLoss = ffe("FF30071", "Number cannot be represented without loss of precision: %s")
	MsgInvalidJSONTypeForBigInt = ffe("FF30072", "Invalid JSON type for big integer: %v")
)
