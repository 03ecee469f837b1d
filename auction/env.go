// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package auction

import (
	"math/big"

	"github.com/meterio/deed-auction/deed"
	"github.com/meterio/deed-auction/state"
	"github.com/meterio/deed-auction/tx"
	"github.com/meterio/deed-auction/xenv"
)

// AuctionEnv bundles everything one registry operation runs against: the
// state, the transaction context and the transfer/event logs accumulated
// while the operation executes. The logs only count once the operation
// commits; a failed operation leaves none behind.
type AuctionEnv struct {
	registry *Registry
	state    *state.State
	txCtx    *xenv.TransactionContext
	tracker  DeedRegistry

	transfers []*tx.Transfer
	events    []*tx.Event
}

// NewAuctionEnv creates the execution env for a single operation.
func NewAuctionEnv(r *Registry, state *state.State, txCtx *xenv.TransactionContext) *AuctionEnv {
	return &AuctionEnv{
		registry:  r,
		state:     state,
		txCtx:     txCtx,
		tracker:   r.newTracker(state),
		transfers: make([]*tx.Transfer, 0),
		events:    make([]*tx.Event, 0),
	}
}

func (env *AuctionEnv) GetState() *state.State             { return env.state }
func (env *AuctionEnv) GetTxCtx() *xenv.TransactionContext { return env.txCtx }
func (env *AuctionEnv) GetDeedRegistry() DeedRegistry      { return env.tracker }

// AddTransfer records a fund movement for the external log stream.
func (env *AuctionEnv) AddTransfer(sender, recipient deed.Address, amount *big.Int, token byte) {
	env.transfers = append(env.transfers, &tx.Transfer{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
		Token:     token,
	})
}

// AddEvent records an event for the external log stream.
func (env *AuctionEnv) AddEvent(address deed.Address, topics []deed.Bytes32, data []byte) {
	env.events = append(env.events, &tx.Event{
		Address: address,
		Topics:  topics,
		Data:    data,
	})
}

func (env *AuctionEnv) GetTransfers() tx.Transfers { return env.transfers }
func (env *AuctionEnv) GetEvents() tx.Events       { return env.events }

type envMark struct {
	transfers int
	events    int
}

func (env *AuctionEnv) mark() envMark {
	return envMark{len(env.transfers), len(env.events)}
}

func (env *AuctionEnv) rewind(m envMark) {
	env.transfers = env.transfers[:m.transfers]
	env.events = env.events[:m.events]
}

// escrowFund moves the bid value from the bidder into the auction module
// account. Fails when the bidder balance cannot cover the amount.
func (env *AuctionEnv) escrowFund(bidder deed.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	if !env.state.SubBalance(bidder, amount) {
		return ErrTransferFailed
	}
	env.state.AddBalance(deed.AuctionModuleAddr, amount)
	env.AddTransfer(bidder, deed.AuctionModuleAddr, amount, deed.NATIVE)
	return nil
}

// sendFund pays amount out of the auction module account through the
// registry's fund-transfer capability. It never raises; the caller must
// treat false as fatal for the enclosing operation.
func (env *AuctionEnv) sendFund(to deed.Address, amount *big.Int) bool {
	if amount.Sign() == 0 {
		return true
	}
	if !env.registry.send(env, to, amount) {
		return false
	}
	env.AddTransfer(deed.AuctionModuleAddr, to, amount, deed.NATIVE)
	return true
}
