// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package auction

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/meterio/deed-auction/deed"
)

// Event signatures. Topic0 identifies the event, topic1 carries the
// auction id for all four so indexers can follow one auction cheaply.
var (
	AuctionCreatedEvent   = deed.Blake2b([]byte("AuctionCreated(uint64,bytes32)"))
	BidAcceptedEvent      = deed.Blake2b([]byte("BidAccepted(address,uint64,uint256)"))
	AuctionCanceledEvent  = deed.Blake2b([]byte("AuctionCanceled(uint64)"))
	AuctionFinalizedEvent = deed.Blake2b([]byte("AuctionFinalized(address,uint64)"))
)

func (env *AuctionEnv) emitAuctionCreated(auctionID uint64, deedID deed.Bytes32) {
	data, err := rlp.EncodeToBytes([]interface{}{deedID})
	if err != nil {
		env.registry.logger.Error("rlp encode event failed", "err", err)
		return
	}
	env.AddEvent(deed.AuctionModuleAddr,
		[]deed.Bytes32{AuctionCreatedEvent, deed.Uint64ToBytes32(auctionID)}, data)
}

func (env *AuctionEnv) emitBidAccepted(bidder deed.Address, auctionID uint64, amount *big.Int) {
	data, err := rlp.EncodeToBytes([]interface{}{bidder, amount})
	if err != nil {
		env.registry.logger.Error("rlp encode event failed", "err", err)
		return
	}
	env.AddEvent(deed.AuctionModuleAddr,
		[]deed.Bytes32{BidAcceptedEvent, deed.Uint64ToBytes32(auctionID)}, data)
}

func (env *AuctionEnv) emitAuctionCanceled(auctionID uint64) {
	env.AddEvent(deed.AuctionModuleAddr,
		[]deed.Bytes32{AuctionCanceledEvent, deed.Uint64ToBytes32(auctionID)}, nil)
}

func (env *AuctionEnv) emitAuctionFinalized(caller deed.Address, auctionID uint64) {
	data, err := rlp.EncodeToBytes([]interface{}{caller})
	if err != nil {
		env.registry.logger.Error("rlp encode event failed", "err", err)
		return
	}
	env.AddEvent(deed.AuctionModuleAddr,
		[]deed.Bytes32{AuctionFinalizedEvent, deed.Uint64ToBytes32(auctionID)}, data)
}
