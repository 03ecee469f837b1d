// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package auction

import (
	"log/slog"
	"math/big"
	"sync/atomic"

	"github.com/meterio/deed-auction/deed"
	"github.com/meterio/deed-auction/deedtracker"
	"github.com/meterio/deed-auction/state"
)

// DeedRegistry is the capability interface the auction module consumes
// from the deed ownership ledger.
type DeedRegistry interface {
	OwnerOf(id deed.Bytes32) (deed.Address, error)
	ApprovedOperator(id deed.Bytes32) (deed.Address, error)
	TransferFrom(caller, from, to deed.Address, id deed.Bytes32) error
	RevokeApprovalForAll(caller, operator deed.Address) error
}

// FundSender sends amount out of the auction module account to a
// recipient. It returns success or failure, never raises.
type FundSender func(env *AuctionEnv, to deed.Address, amount *big.Int) bool

// sendFromModule is the default fund-transfer capability: a plain balance
// move inside the ledger state.
func sendFromModule(env *AuctionEnv, to deed.Address, amount *big.Int) bool {
	st := env.GetState()
	if !st.SubBalance(deed.AuctionModuleAddr, amount) {
		return false
	}
	st.AddBalance(to, amount)
	return true
}

// Registry is the auction registry: it owns the auction collection and
// enforces the lifecycle state machine over it.
type Registry struct {
	logger *slog.Logger
	busy   int32

	newTracker func(*state.State) DeedRegistry
	send       FundSender
}

// New creates an auction registry with the default collaborators: the
// deed tracker under its well-known module address and in-ledger fund
// transfers.
func New() *Registry {
	return &Registry{
		logger: slog.With("pkg", "auction"),
		newTracker: func(st *state.State) DeedRegistry {
			return deedtracker.New(deed.DeedRegistryAddr, st)
		},
		send: sendFromModule,
	}
}

// SetFundSender overrides the outbound fund-transfer capability.
func (r *Registry) SetFundSender(send FundSender) {
	r.send = send
}

// SetDeedRegistry overrides the deed ledger capability.
func (r *Registry) SetDeedRegistry(newTracker func(*state.State) DeedRegistry) {
	r.newTracker = newTracker
}

func (r *Registry) enter() bool {
	return atomic.CompareAndSwapInt32(&r.busy, 0, 1)
}

func (r *Registry) exit() {
	atomic.StoreInt32(&r.busy, 0)
}

// runMutating wraps every state-mutating entry point. It rejects nested
// re-entry for the whole registry, and it reverts state, transfers and
// events as a unit when the operation fails, so a failed call has zero
// observable effect.
func (r *Registry) runMutating(env *AuctionEnv, op string, fn func() error) error {
	if !r.enter() {
		r.logger.Warn("rejected reentrant call", "op", op, "origin", env.GetTxCtx().Origin)
		return ErrReentrantCall
	}
	defer r.exit()

	rev := env.GetState().NewCheckpoint()
	m := env.mark()
	if err := fn(); err != nil {
		env.GetState().RevertTo(rev)
		env.rewind(m)
		r.logger.Info("operation rejected", "op", op, "origin", env.GetTxCtx().Origin, "err", err)
		return err
	}
	if err := env.GetState().Err(); err != nil {
		env.GetState().RevertTo(rev)
		env.rewind(m)
		r.logger.Error("state error during operation", "op", op, "err", err)
		return err
	}
	escrowed, _ := new(big.Float).SetInt(env.GetState().GetBalance(deed.AuctionModuleAddr)).Float64()
	escrowedFundsGauge.Set(escrowed)
	return nil
}
