// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package auction

import (
	"math/big"
	"time"

	"github.com/meterio/deed-auction/deed"
)

// CreateAuction opens a new auction for the given deed. The registry must
// already hold transfer approval for the deed; the deed itself stays with
// the seller until finalize. No funds move here.
func (r *Registry) CreateAuction(env *AuctionEnv, deedID deed.Bytes32, title string, startPrice *big.Int, deadline uint64) (id uint64, err error) {
	start := time.Now()
	defer func() {
		r.logger.Debug("create completed", "elapsed", deed.PrettyDuration(time.Since(start)))
	}()

	err = r.runMutating(env, "create", func() error {
		tracker := env.GetDeedRegistry()
		operator, err := tracker.ApprovedOperator(deedID)
		if err != nil {
			return err
		}
		if operator != deed.AuctionModuleAddr {
			return ErrNotApprovedOperator
		}
		owner, err := tracker.OwnerOf(deedID)
		if err != nil {
			return err
		}

		state := env.GetState()
		list := r.GetAuctionList(state)
		id = list.Add(&Auction{
			Title:      title,
			DeedID:     deedID,
			StartPrice: new(big.Int).Set(startPrice),
			Deadline:   deadline,
			Owner:      owner,
			Status:     deed.AUCTION_OPEN,
			CreateTime: env.GetTxCtx().Time,
			Bids:       make([]*Bid, 0),
		})
		r.SetAuctionList(list, state)
		r.SetOwnerIndex(owner, append(r.GetOwnerIndex(owner, state), id), state)

		env.emitAuctionCreated(id, deedID)
		r.logger.Info("auction created", "id", id, "deed", deedID.AbbrevString(), "owner", owner, "deadline", deadline)
		auctionsCreatedCounter.Inc()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}
