// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/meterio/deed-auction/deed"
	"github.com/meterio/deed-auction/kv"
)

var (
	accountPrefix = []byte("a")
	storagePrefix = []byte("s")
)

// Account is the persisted form of an account record.
type Account struct {
	Balance *big.Int
}

type storageKey struct {
	addr deed.Address
	key  deed.Bytes32
}

type journalEntry struct {
	revert func(s *State)
}

// State manages the main accounts trie. Balances and raw storage slots are
// cached in memory, every mutation is journaled, and checkpoints allow a
// whole operation to be reverted with zero observable effect.
type State struct {
	kv       kv.GetPutter
	accounts map[deed.Address]*big.Int
	storage  map[storageKey][]byte

	journal    []journalEntry
	dirtyAccs  map[deed.Address]bool
	dirtySlots map[storageKey]bool

	err      error
	setError func(err error)
}

// New create a state object backed by the given kv store.
func New(store kv.GetPutter) (*State, error) {
	state := State{
		kv:         store,
		accounts:   make(map[deed.Address]*big.Int),
		storage:    make(map[storageKey][]byte),
		dirtyAccs:  make(map[deed.Address]bool),
		dirtySlots: make(map[storageKey]bool),
	}
	state.setError = func(err error) {
		if state.err == nil {
			state.err = err
		}
	}
	return &state, nil
}

// Err returns first occurred error.
func (s *State) Err() error {
	return s.err
}

func accountKey(addr deed.Address) []byte {
	return append(append([]byte{}, accountPrefix...), addr.Bytes()...)
}

func slotKey(k storageKey) []byte {
	b := append(append([]byte{}, storagePrefix...), k.addr.Bytes()...)
	return append(b, k.key.Bytes()...)
}

func (s *State) loadBalance(addr deed.Address) *big.Int {
	if b, ok := s.accounts[addr]; ok {
		return b
	}
	balance := new(big.Int)
	data, err := s.kv.Get(accountKey(addr))
	if err == nil {
		var acc Account
		if err := rlp.DecodeBytes(data, &acc); err != nil {
			s.setError(err)
		} else if acc.Balance != nil {
			balance = acc.Balance
		}
	}
	s.accounts[addr] = balance
	return balance
}

func (s *State) loadSlot(k storageKey) []byte {
	if raw, ok := s.storage[k]; ok {
		return raw
	}
	var raw []byte
	if data, err := s.kv.Get(slotKey(k)); err == nil {
		raw = data
	}
	s.storage[k] = raw
	return raw
}

// GetBalance returns native token balance of the account.
func (s *State) GetBalance(addr deed.Address) *big.Int {
	return new(big.Int).Set(s.loadBalance(addr))
}

// SetBalance sets native token balance of the account.
func (s *State) SetBalance(addr deed.Address, balance *big.Int) {
	prev := s.loadBalance(addr)
	s.journal = append(s.journal, journalEntry{func(s *State) {
		s.accounts[addr] = prev
	}})
	s.accounts[addr] = new(big.Int).Set(balance)
	s.dirtyAccs[addr] = true
}

// AddBalance adds amount to the account's balance.
func (s *State) AddBalance(addr deed.Address, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	s.SetBalance(addr, new(big.Int).Add(s.loadBalance(addr), amount))
}

// SubBalance subtracts amount from the account's balance.
// Returns false and leaves the balance untouched if it is insufficient.
func (s *State) SubBalance(addr deed.Address, amount *big.Int) bool {
	if amount.Sign() == 0 {
		return true
	}
	balance := s.loadBalance(addr)
	if balance.Cmp(amount) < 0 {
		return false
	}
	s.SetBalance(addr, new(big.Int).Sub(balance, amount))
	return true
}

// GetRawStorage returns raw storage slot content.
func (s *State) GetRawStorage(addr deed.Address, key deed.Bytes32) []byte {
	return s.loadSlot(storageKey{addr, key})
}

// SetRawStorage sets raw storage slot content.
func (s *State) SetRawStorage(addr deed.Address, key deed.Bytes32, raw []byte) {
	k := storageKey{addr, key}
	prev := s.loadSlot(k)
	s.journal = append(s.journal, journalEntry{func(s *State) {
		s.storage[k] = prev
	}})
	s.storage[k] = raw
	s.dirtySlots[k] = true
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by end will be absorbed by State instance.
func (s *State) EncodeStorage(addr deed.Address, key deed.Bytes32, enc func() ([]byte, error)) {
	raw, err := enc()
	if err != nil {
		s.setError(err)
		return
	}
	s.SetRawStorage(addr, key, raw)
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be absorbed by State instance.
func (s *State) DecodeStorage(addr deed.Address, key deed.Bytes32, dec func([]byte) error) {
	if err := dec(s.GetRawStorage(addr, key)); err != nil {
		s.setError(err)
	}
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return len(s.journal)
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	for i := len(s.journal) - 1; i >= revision; i-- {
		s.journal[i].revert(s)
	}
	s.journal = s.journal[:revision]
}

// Commit persists all accumulated changes into the kv store and resets
// the journal. Uncommitted reverted changes never reach the store.
func (s *State) Commit() error {
	if s.err != nil {
		return s.err
	}
	for addr := range s.dirtyAccs {
		data, err := rlp.EncodeToBytes(&Account{Balance: s.accounts[addr]})
		if err != nil {
			return err
		}
		if err := s.kv.Put(accountKey(addr), data); err != nil {
			return err
		}
	}
	for k := range s.dirtySlots {
		if err := s.kv.Put(slotKey(k), s.storage[k]); err != nil {
			return err
		}
	}
	s.journal = s.journal[:0]
	s.dirtyAccs = make(map[deed.Address]bool)
	s.dirtySlots = make(map[storageKey]bool)
	return nil
}
