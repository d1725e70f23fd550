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

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseElementaryTypes(t *testing.T) {
	ctx := context.Background()

	tc, err := ParseType(ctx, "uint256", nil)
	assert.NoError(t, err)
	assert.Equal(t, "uint256", tc.CanonicalType())
	assert.False(t, tc.IsDynamic())

	tc, err = ParseType(ctx, "uint", nil)
	assert.NoError(t, err)
	assert.Equal(t, "uint256", tc.CanonicalType())

	tc, err = ParseType(ctx, "bytes32", nil)
	assert.NoError(t, err)
	assert.Equal(t, "bytes32", tc.CanonicalType())
	assert.False(t, tc.IsDynamic())

	tc, err = ParseType(ctx, "bytes", nil)
	assert.NoError(t, err)
	assert.Equal(t, "bytes", tc.CanonicalType())
	assert.True(t, tc.IsDynamic())

	tc, err = ParseType(ctx, "string", nil)
	assert.NoError(t, err)
	assert.True(t, tc.IsDynamic())

	tc, err = ParseType(ctx, "address", nil)
	assert.NoError(t, err)
	assert.Equal(t, "address", tc.CanonicalType())
}

func TestParseArrayTypes(t *testing.T) {
	ctx := context.Background()

	tc, err := ParseType(ctx, "uint256[]", nil)
	assert.NoError(t, err)
	assert.Equal(t, DynamicArrayComponent, tc.ComponentType())
	assert.True(t, tc.IsDynamic())
	assert.Equal(t, "uint256[]", tc.CanonicalType())

	tc, err = ParseType(ctx, "uint256[3]", nil)
	assert.NoError(t, err)
	assert.Equal(t, FixedArrayComponent, tc.ComponentType())
	assert.False(t, tc.IsDynamic())
	assert.Equal(t, uint32(3), tc.ArrayLength())

	tc, err = ParseType(ctx, "string[2][]", nil)
	assert.NoError(t, err)
	assert.Equal(t, DynamicArrayComponent, tc.ComponentType())
	assert.Equal(t, FixedArrayComponent, tc.ArrayChild().ComponentType())
	assert.Equal(t, "string[2][]", tc.CanonicalType())
	assert.True(t, tc.IsDynamic())
}

func TestParseTupleTypes(t *testing.T) {
	ctx := context.Background()

	addr, err := ParseType(ctx, "address", nil)
	assert.NoError(t, err)
	amount, err := ParseType(ctx, "uint256", nil)
	assert.NoError(t, err)

	tc, err := ParseType(ctx, "tuple", []*TypeComponent{addr, amount})
	assert.NoError(t, err)
	assert.Equal(t, "(address,uint256)", tc.CanonicalType())
	assert.False(t, tc.IsDynamic())

	name, err := ParseType(ctx, "string", nil)
	assert.NoError(t, err)
	tc, err = ParseType(ctx, "tuple", []*TypeComponent{addr, name})
	assert.NoError(t, err)
	assert.True(t, tc.IsDynamic())
}

func TestParseTypeErrors(t *testing.T) {
	ctx := context.Background()

	_, err := ParseType(ctx, "uint7", nil)
	assert.Error(t, err)

	_, err = ParseType(ctx, "uint512", nil)
	assert.Error(t, err)

	_, err = ParseType(ctx, "bytes33", nil)
	assert.Error(t, err)

	_, err = ParseType(ctx, "fixed128x18", nil)
	assert.Error(t, err)

	_, err = ParseType(ctx, "wibble", nil)
	assert.Error(t, err)
}
