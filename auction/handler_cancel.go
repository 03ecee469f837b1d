// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package auction

import (
	"time"

	"github.com/meterio/deed-auction/deed"
)

// CancelAuction lets the owner call the auction off while the bidding
// window is still open. The status flips first, then the outstanding bid
// (if any) is refunded.
func (r *Registry) CancelAuction(env *AuctionEnv, auctionID uint64) error {
	start := time.Now()
	defer func() {
		r.logger.Debug("cancel completed", "elapsed", deed.PrettyDuration(time.Since(start)))
	}()

	return r.runMutating(env, "cancel", func() error {
		state := env.GetState()
		list := r.GetAuctionList(state)
		a := list.Get(auctionID)
		if a == nil {
			return ErrInvalidAuction
		}
		if env.GetTxCtx().Origin != a.Owner {
			return ErrNotOwner
		}
		if env.GetTxCtx().Time > a.Deadline {
			return ErrExpired
		}
		if !a.IsOpen() {
			return ErrInvalidAuction
		}

		a.Status = deed.AUCTION_CANCELED
		r.SetAuctionList(list, state)

		if last := a.HighestBid(); last != nil {
			if !env.sendFund(last.Bidder, last.Amount) {
				return ErrTransferFailed
			}
		}

		env.emitAuctionCanceled(auctionID)
		r.logger.Info("auction canceled", "auction", auctionID, "owner", a.Owner)
		auctionsCanceledCounter.Inc()
		return nil
	})
}

// RevokeApproval removes the registry's operator grant on the deed of a
// canceled auction, so the canceled auction can never later be used to
// move it. Only the owner may revoke, and only once the auction is
// Canceled.
func (r *Registry) RevokeApproval(env *AuctionEnv, auctionID uint64) error {
	return r.runMutating(env, "revoke-approval", func() error {
		state := env.GetState()
		list := r.GetAuctionList(state)
		a := list.Get(auctionID)
		if a == nil {
			return ErrInvalidAuction
		}
		if env.GetTxCtx().Origin != a.Owner {
			return ErrNotOwner
		}
		if a.Status != deed.AUCTION_CANCELED {
			return ErrNotCanceled
		}

		if err := env.GetDeedRegistry().RevokeApprovalForAll(a.Owner, deed.AuctionModuleAddr); err != nil {
			return err
		}
		r.logger.Info("approval revoked", "auction", auctionID, "owner", a.Owner)
		return nil
	})
}
