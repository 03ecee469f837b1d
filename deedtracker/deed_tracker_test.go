// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package deedtracker_test

import (
	"testing"

	"github.com/meterio/deed-auction/deed"
	"github.com/meterio/deed-auction/deedtracker"
	"github.com/meterio/deed-auction/lvldb"
	"github.com/meterio/deed-auction/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice    = deed.BytesToAddress([]byte("alice"))
	bob      = deed.BytesToAddress([]byte("bob"))
	operator = deed.BytesToAddress([]byte("operator"))
)

func newTracker(t *testing.T) *deedtracker.DeedTracker {
	kv, err := lvldb.NewMem()
	require.NoError(t, err)
	st, err := state.New(kv)
	require.NoError(t, err)
	return deedtracker.New(deed.DeedRegistryAddr, st)
}

func TestMintAndOwnerOf(t *testing.T) {
	tr := newTracker(t)
	id := deed.Blake2b([]byte("parcel-1"))

	_, err := tr.OwnerOf(id)
	assert.Equal(t, deedtracker.ErrDeedNotFound, err)

	require.NoError(t, tr.Mint(alice, id, "parcel 1"))
	owner, err := tr.OwnerOf(id)
	require.NoError(t, err)
	assert.Equal(t, alice, owner)

	name, err := tr.GetName(id)
	require.NoError(t, err)
	assert.Equal(t, "parcel 1", name)

	assert.Equal(t, deedtracker.ErrDeedExists, tr.Mint(bob, id, "dup"))
}

func TestApproveAndTransferFrom(t *testing.T) {
	tr := newTracker(t)
	id := deed.Blake2b([]byte("parcel-1"))
	require.NoError(t, tr.Mint(alice, id, "parcel 1"))

	op, err := tr.ApprovedOperator(id)
	require.NoError(t, err)
	assert.True(t, op.IsZero())

	assert.Equal(t, deedtracker.ErrNotAuthorized, tr.Approve(bob, operator, id))
	require.NoError(t, tr.Approve(alice, operator, id))

	op, err = tr.ApprovedOperator(id)
	require.NoError(t, err)
	assert.Equal(t, operator, op)

	// operator moves the deed, approval is consumed
	require.NoError(t, tr.TransferFrom(operator, alice, bob, id))
	owner, err := tr.OwnerOf(id)
	require.NoError(t, err)
	assert.Equal(t, bob, owner)

	op, err = tr.ApprovedOperator(id)
	require.NoError(t, err)
	assert.True(t, op.IsZero())

	assert.Equal(t, []deed.Bytes32{id}, tr.DeedsOf(bob))
	assert.Empty(t, tr.DeedsOf(alice))
}

func TestTransferFromRejectsWrongOwnerAndStranger(t *testing.T) {
	tr := newTracker(t)
	id := deed.Blake2b([]byte("parcel-1"))
	require.NoError(t, tr.Mint(alice, id, "parcel 1"))

	assert.Equal(t, deedtracker.ErrWrongOwner, tr.TransferFrom(alice, bob, operator, id))
	assert.Equal(t, deedtracker.ErrNotAuthorized, tr.TransferFrom(bob, alice, bob, id))
}

func TestRevokeApprovalForAll(t *testing.T) {
	tr := newTracker(t)
	id1 := deed.Blake2b([]byte("parcel-1"))
	id2 := deed.Blake2b([]byte("parcel-2"))
	require.NoError(t, tr.Mint(alice, id1, "parcel 1"))
	require.NoError(t, tr.Mint(alice, id2, "parcel 2"))
	require.NoError(t, tr.Approve(alice, operator, id1))
	require.NoError(t, tr.Approve(alice, operator, id2))

	require.NoError(t, tr.RevokeApprovalForAll(alice, operator))

	for _, id := range []deed.Bytes32{id1, id2} {
		op, err := tr.ApprovedOperator(id)
		require.NoError(t, err)
		assert.True(t, op.IsZero())
	}
}
