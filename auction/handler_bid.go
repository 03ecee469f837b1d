// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package auction

import (
	"math/big"
	"time"

	"github.com/meterio/deed-auction/deed"
)

// BidOnAuction escrows amount as the new highest bid. At most one bid's
// funds are held per auction at any time: the previous highest bid is
// refunded in the same operation, after the new bid is recorded, so a
// reentrant callee always observes the new highest bid.
func (r *Registry) BidOnAuction(env *AuctionEnv, auctionID uint64, amount *big.Int) error {
	start := time.Now()
	defer func() {
		r.logger.Debug("bid completed", "elapsed", deed.PrettyDuration(time.Since(start)))
	}()

	return r.runMutating(env, "bid", func() error {
		state := env.GetState()
		bidder := env.GetTxCtx().Origin

		list := r.GetAuctionList(state)
		a := list.Get(auctionID)
		if a == nil {
			return ErrInvalidAuction
		}
		if !a.IsOpen() {
			return ErrInvalidAuction
		}
		if bidder == a.Owner {
			return ErrOwnerCannotBid
		}
		if env.GetTxCtx().Time > a.Deadline {
			return ErrExpired
		}

		prev := a.HighestBid()
		if prev == nil {
			// first bid clears the start price and must carry value
			if amount.Sign() <= 0 || amount.Cmp(a.StartPrice) < 0 {
				return ErrBidTooLow
			}
		} else if amount.Cmp(prev.Amount) <= 0 {
			return ErrBidTooLow
		}

		if err := env.escrowFund(bidder, amount); err != nil {
			return err
		}

		// record the new bid before the outbound refund
		a.AddBid(&Bid{
			Bidder:    bidder,
			Amount:    new(big.Int).Set(amount),
			Timestamp: env.GetTxCtx().Time,
			Nonce:     env.GetTxCtx().Nonce,
		})
		r.SetAuctionList(list, state)

		if prev != nil {
			if !env.sendFund(prev.Bidder, prev.Amount) {
				return ErrTransferFailed
			}
		}

		env.emitBidAccepted(bidder, auctionID, amount)
		r.logger.Info("bid accepted", "auction", auctionID, "bidder", bidder, "amount", amount)
		bidsAcceptedCounter.Inc()
		return nil
	})
}
