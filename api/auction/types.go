// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package auction

import (
	"fmt"
	"time"

	"github.com/meterio/deed-auction/auction"
	"github.com/meterio/deed-auction/deed"
)

type Bid struct {
	Bidder    deed.Address `json:"bidder"`
	Amount    string       `json:"amount"`
	Timestamp string       `json:"timestamp"`
	Nonce     uint64       `json:"nonce"`
}

type AuctionSummary struct {
	ID         uint64       `json:"id"`
	Title      string       `json:"title"`
	DeedID     deed.Bytes32 `json:"deedID"`
	Owner      deed.Address `json:"owner"`
	StartPrice string       `json:"startPrice"`
	Deadline   uint64       `json:"deadline"`
	Status     string       `json:"status"`
	CreateTime string       `json:"createTime"`
	BidCount   int          `json:"bidCount"`
	HighestBid *Bid         `json:"highestBid"`
}

type AuctionDetail struct {
	AuctionSummary
	Bids []*Bid `json:"bids"`
}

func convertBid(b *auction.Bid) *Bid {
	if b == nil {
		return nil
	}
	return &Bid{
		Bidder:    b.Bidder,
		Amount:    b.Amount.String(),
		Timestamp: fmt.Sprintln(time.Unix(int64(b.Timestamp), 0)),
		Nonce:     b.Nonce,
	}
}

func convertSummary(a *auction.Auction) *AuctionSummary {
	return &AuctionSummary{
		ID:         a.ID,
		Title:      a.Title,
		DeedID:     a.DeedID,
		Owner:      a.Owner,
		StartPrice: a.StartPrice.String(),
		Deadline:   a.Deadline,
		Status:     deed.GetStatusName(a.Status),
		CreateTime: fmt.Sprintln(time.Unix(int64(a.CreateTime), 0)),
		BidCount:   len(a.Bids),
		HighestBid: convertBid(a.HighestBid()),
	}
}

func convertDetail(a *auction.Auction) *AuctionDetail {
	bids := make([]*Bid, 0, len(a.Bids))
	for _, b := range a.Bids {
		bids = append(bids, convertBid(b))
	}
	return &AuctionDetail{
		AuctionSummary: *convertSummary(a),
		Bids:           bids,
	}
}

type CreateAuctionRequest struct {
	Caller     deed.Address `json:"caller"`
	DeedID     deed.Bytes32 `json:"deedID"`
	Title      string       `json:"title"`
	StartPrice string       `json:"startPrice"`
	Deadline   uint64       `json:"deadline"`
}

type BidRequest struct {
	Caller deed.Address `json:"caller"`
	Amount string       `json:"amount"`
}

type ActionRequest struct {
	Caller deed.Address `json:"caller"`
}

type TxResult struct {
	TxID      deed.Bytes32 `json:"txID"`
	AuctionID uint64       `json:"auctionID"`
}
