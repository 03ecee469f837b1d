// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package auction

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/meterio/deed-auction/deed"
)

// Bid is one accepted bid. Bids are append-only: once recorded they are
// never removed or mutated, whether refunded or not.
type Bid struct {
	Bidder    deed.Address
	Amount    *big.Int
	Timestamp uint64
	Nonce     uint64
}

func (b *Bid) ToString() string {
	return fmt.Sprintf("Bid(bidder=%v, amount=%v, time=%v)",
		b.Bidder, b.Amount.String(), fmt.Sprintln(time.Unix(int64(b.Timestamp), 0)))
}

// Auction is one auction record. Only Status and the bid log change after
// creation; everything else is immutable.
type Auction struct {
	ID         uint64
	Title      string
	DeedID     deed.Bytes32
	StartPrice *big.Int
	Deadline   uint64
	Owner      deed.Address
	Status     uint8
	CreateTime uint64
	Bids       []*Bid
}

// HighestBid returns the latest (and therefore highest) bid, nil if none.
func (a *Auction) HighestBid() *Bid {
	if len(a.Bids) == 0 {
		return nil
	}
	return a.Bids[len(a.Bids)-1]
}

// AddBid appends a bid to the log. The caller has already validated that
// the amount outbids the current highest.
func (a *Auction) AddBid(b *Bid) {
	a.Bids = append(a.Bids, b)
}

// IsOpen reports whether the auction is still in its bidding lifecycle.
func (a *Auction) IsOpen() bool {
	return a.Status == deed.AUCTION_OPEN
}

func (a *Auction) ToString() string {
	s := []string{fmt.Sprintf("Auction(ID=%v, Title=%v, DeedID=%v, StartPrice=%v, Deadline=%v, Owner=%v, Status=%v, CreateTime=%v)",
		a.ID, a.Title, a.DeedID.AbbrevString(), a.StartPrice.String(), a.Deadline, a.Owner, deed.GetStatusName(a.Status),
		fmt.Sprintln(time.Unix(int64(a.CreateTime), 0)))}
	for i, b := range a.Bids {
		s = append(s, fmt.Sprintf("  %d.%v", i, b.ToString()))
	}
	return strings.Join(s, "\n")
}

// AuctionList is the whole auction collection. Auction ids are 1-based
// pre-increment: the auction with id n lives at index n-1, and ids are
// never reused since auctions are never deleted.
type AuctionList struct {
	Auctions []*Auction
}

// Count returns the number of auctions ever created.
func (l *AuctionList) Count() uint64 {
	return uint64(len(l.Auctions))
}

// Get returns the auction with the given id, nil when the id is outside
// [1, count].
func (l *AuctionList) Get(id uint64) *Auction {
	if id < deed.AuctionIDOrigin || id > l.Count() {
		return nil
	}
	return l.Auctions[id-1]
}

// Add appends the auction and assigns its id.
func (l *AuctionList) Add(a *Auction) uint64 {
	a.ID = l.Count() + 1
	l.Auctions = append(l.Auctions, a)
	return a.ID
}

func (l *AuctionList) ToString() string {
	if l == nil || len(l.Auctions) == 0 {
		return "AuctionList (size:0)"
	}
	s := []string{fmt.Sprintf("AuctionList (size:%v) {", len(l.Auctions))}
	for _, a := range l.Auctions {
		s = append(s, "  "+a.ToString())
	}
	s = append(s, "}")
	return strings.Join(s, "\n")
}
