// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package auction

import (
	"time"

	"github.com/meterio/deed-auction/deed"
)

// FinalizeAuction settles an auction whose deadline has passed. It is
// callable by anyone, so funds and deeds are never stuck waiting for a
// particular caller. With no bids the auction closes through the
// cancellation path; otherwise the seller is paid and the deed moves to
// the winner.
func (r *Registry) FinalizeAuction(env *AuctionEnv, auctionID uint64) error {
	start := time.Now()
	defer func() {
		r.logger.Debug("finalize completed", "elapsed", deed.PrettyDuration(time.Since(start)))
	}()

	return r.runMutating(env, "finalize", func() error {
		state := env.GetState()
		list := r.GetAuctionList(state)
		a := list.Get(auctionID)
		if a == nil {
			return ErrInvalidAuction
		}
		if !a.IsOpen() {
			return ErrInvalidAuction
		}
		if env.GetTxCtx().Time < a.Deadline {
			return ErrNotEnded
		}

		last := a.HighestBid()
		if last == nil {
			// no economic activity, close through the cancellation path
			r.closeWithoutSale(env, list, a)
			r.logger.Info("auction closed without bids", "auction", auctionID)
			auctionsCanceledCounter.Inc()
			return nil
		}

		if !env.sendFund(a.Owner, last.Amount) {
			return ErrTransferFailed
		}
		if err := env.GetDeedRegistry().TransferFrom(deed.AuctionModuleAddr, a.Owner, last.Bidder, a.DeedID); err != nil {
			return err
		}

		a.Status = deed.AUCTION_FINALIZED
		r.SetAuctionList(list, state)

		env.emitAuctionFinalized(env.GetTxCtx().Origin, auctionID)
		r.logger.Info("auction finalized", "auction", auctionID, "winner", last.Bidder, "amount", last.Amount)
		auctionsFinalizedCounter.Inc()
		return nil
	})
}

// closeWithoutSale flips the auction to Canceled. The deed never left the
// seller under the approval custody model, so only the approval grant
// remains to be cleaned up via RevokeApproval.
func (r *Registry) closeWithoutSale(env *AuctionEnv, list *AuctionList, a *Auction) {
	a.Status = deed.AUCTION_CANCELED
	r.SetAuctionList(list, env.GetState())
	env.emitAuctionCanceled(a.ID)
}
