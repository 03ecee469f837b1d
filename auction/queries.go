// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package auction

import (
	"github.com/meterio/deed-auction/deed"
	"github.com/meterio/deed-auction/state"
)

// Read-only accessors. These never take the mutation guard and carry no
// side effects.

// AuctionCount returns the total number of auctions ever created.
func (r *Registry) AuctionCount(state *state.State) uint64 {
	return r.GetAuctionList(state).Count()
}

// GetAuction returns the auction with the given id.
func (r *Registry) GetAuction(state *state.State, id uint64) (*Auction, error) {
	a := r.GetAuctionList(state).Get(id)
	if a == nil {
		return nil, ErrInvalidAuction
	}
	return a, nil
}

// CurrentBid returns the current highest bid of an auction.
func (r *Registry) CurrentBid(state *state.State, id uint64) (*Bid, error) {
	a, err := r.GetAuction(state, id)
	if err != nil {
		return nil, err
	}
	last := a.HighestBid()
	if last == nil {
		return nil, ErrNoBid
	}
	return last, nil
}

// AuctionsByOwner enumerates the auction ids created for deeds of owner.
func (r *Registry) AuctionsByOwner(state *state.State, owner deed.Address) []uint64 {
	return r.GetOwnerIndex(owner, state)
}
