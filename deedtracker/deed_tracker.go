// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package deedtracker

import (
	"errors"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/meterio/deed-auction/deed"
	"github.com/meterio/deed-auction/state"
)

var (
	ErrDeedNotFound  = errors.New("deed not assigned")
	ErrDeedExists    = errors.New("deed already assigned")
	ErrNotAuthorized = errors.New("caller not owner nor approved operator")
	ErrWrongOwner    = errors.New("from is not the current owner")
)

// DeedTracker keeps the ownership ledger of deeds: one owner and at most
// one approved transfer operator per deed, stored under its module address.
type DeedTracker struct {
	addr  deed.Address
	state *state.State
}

// New creates a deed tracker bound to the given state.
func New(addr deed.Address, state *state.State) *DeedTracker {
	return &DeedTracker{addr, state}
}

func deedKey(id deed.Bytes32) deed.Bytes32 {
	return deed.Blake2b([]byte("deed-record"), id.Bytes())
}

func ownerIndexKey(owner deed.Address) deed.Bytes32 {
	return deed.Blake2b([]byte("deed-owner-index"), owner.Bytes())
}

func (t *DeedTracker) getRecord(id deed.Bytes32) (rec DeedRecord) {
	t.state.DecodeStorage(t.addr, deedKey(id), func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &rec)
	})
	return
}

func (t *DeedTracker) setRecord(id deed.Bytes32, rec *DeedRecord) {
	t.state.EncodeStorage(t.addr, deedKey(id), func() ([]byte, error) {
		return rlp.EncodeToBytes(rec)
	})
}

func (t *DeedTracker) getOwnerIndex(owner deed.Address) (ids []deed.Bytes32) {
	t.state.DecodeStorage(t.addr, ownerIndexKey(owner), func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &ids)
	})
	return
}

func (t *DeedTracker) setOwnerIndex(owner deed.Address, ids []deed.Bytes32) {
	t.state.EncodeStorage(t.addr, ownerIndexKey(owner), func() ([]byte, error) {
		return rlp.EncodeToBytes(ids)
	})
}

func (t *DeedTracker) removeFromOwnerIndex(owner deed.Address, id deed.Bytes32) {
	ids := t.getOwnerIndex(owner)
	for i, v := range ids {
		if v == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	t.setOwnerIndex(owner, ids)
}

// Mint assigns a fresh deed to owner. The id must not be taken yet.
func (t *DeedTracker) Mint(owner deed.Address, id deed.Bytes32, name string) error {
	if rec := t.getRecord(id); rec.Exists() {
		return ErrDeedExists
	}
	t.setRecord(id, &DeedRecord{Owner: owner, Name: name})
	t.setOwnerIndex(owner, append(t.getOwnerIndex(owner), id))
	return nil
}

// OwnerOf returns the current owner of the deed.
func (t *DeedTracker) OwnerOf(id deed.Bytes32) (deed.Address, error) {
	rec := t.getRecord(id)
	if !rec.Exists() {
		return deed.Address{}, ErrDeedNotFound
	}
	return rec.Owner, nil
}

// ApprovedOperator returns the approved operator of the deed, or the zero
// address when none is set.
func (t *DeedTracker) ApprovedOperator(id deed.Bytes32) (deed.Address, error) {
	rec := t.getRecord(id)
	if !rec.Exists() {
		return deed.Address{}, ErrDeedNotFound
	}
	return rec.Operator, nil
}

// GetName returns the display name recorded at mint time.
func (t *DeedTracker) GetName(id deed.Bytes32) (string, error) {
	rec := t.getRecord(id)
	if !rec.Exists() {
		return "", ErrDeedNotFound
	}
	return rec.Name, nil
}

// DeedsOf enumerates the deeds currently owned by owner.
func (t *DeedTracker) DeedsOf(owner deed.Address) []deed.Bytes32 {
	return t.getOwnerIndex(owner)
}

// Approve makes operator the sole approved operator of the deed.
// Only the current owner may approve, and a new approval replaces the old.
func (t *DeedTracker) Approve(caller, operator deed.Address, id deed.Bytes32) error {
	rec := t.getRecord(id)
	if !rec.Exists() {
		return ErrDeedNotFound
	}
	if rec.Owner != caller {
		return ErrNotAuthorized
	}
	rec.Operator = operator
	t.setRecord(id, &rec)
	return nil
}

// TransferFrom moves the deed from its current owner to a new one.
// Callable by the owner itself or the approved operator; the approval is
// consumed by the transfer.
func (t *DeedTracker) TransferFrom(caller, from, to deed.Address, id deed.Bytes32) error {
	rec := t.getRecord(id)
	if !rec.Exists() {
		return ErrDeedNotFound
	}
	if rec.Owner != from {
		return ErrWrongOwner
	}
	if caller != rec.Owner && caller != rec.Operator {
		return ErrNotAuthorized
	}

	t.removeFromOwnerIndex(from, id)
	rec.Owner = to
	rec.Operator = deed.Address{}
	t.setRecord(id, &rec)
	t.setOwnerIndex(to, append(t.getOwnerIndex(to), id))
	return nil
}

// RevokeApprovalForAll removes operator from every deed the caller owns.
func (t *DeedTracker) RevokeApprovalForAll(caller, operator deed.Address) error {
	for _, id := range t.getOwnerIndex(caller) {
		rec := t.getRecord(id)
		if rec.Operator == operator {
			rec.Operator = deed.Address{}
			t.setRecord(id, &rec)
		}
	}
	return t.state.Err()
}
