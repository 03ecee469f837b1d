// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package auction_test

import (
	"math/big"
	"testing"

	"github.com/meterio/deed-auction/auction"
	"github.com/meterio/deed-auction/deed"
	"github.com/meterio/deed-auction/deedtracker"
	"github.com/meterio/deed-auction/lvldb"
	"github.com/meterio/deed-auction/state"
	"github.com/meterio/deed-auction/xenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	seller  = deed.BytesToAddress([]byte("seller"))
	bidderX = deed.BytesToAddress([]byte("bidder-x"))
	bidderY = deed.BytesToAddress([]byte("bidder-y"))
	anyone  = deed.BytesToAddress([]byte("anyone"))

	parcelID = deed.Blake2b([]byte("parcel-1"))

	deadline = uint64(1000)
)

type harness struct {
	t       *testing.T
	st      *state.State
	reg     *auction.Registry
	tracker *deedtracker.DeedTracker
}

func newHarness(t *testing.T) *harness {
	kv, err := lvldb.NewMem()
	require.NoError(t, err)
	st, err := state.New(kv)
	require.NoError(t, err)

	h := &harness{
		t:       t,
		st:      st,
		reg:     auction.New(),
		tracker: deedtracker.New(deed.DeedRegistryAddr, st),
	}
	// deed minted and approved to the registry, bidders funded
	require.NoError(t, h.tracker.Mint(seller, parcelID, "parcel 1"))
	require.NoError(t, h.tracker.Approve(seller, deed.AuctionModuleAddr, parcelID))
	st.AddBalance(bidderX, big.NewInt(1000))
	st.AddBalance(bidderY, big.NewInt(1000))
	return h
}

func (h *harness) env(origin deed.Address, now uint64) *auction.AuctionEnv {
	return auction.NewAuctionEnv(h.reg, h.st, &xenv.TransactionContext{
		ID:     deed.Blake2b(origin.Bytes(), deed.Uint64ToBytes32(now).Bytes()),
		Origin: origin,
		Time:   now,
	})
}

func (h *harness) create(now uint64, startPrice int64) uint64 {
	id, err := h.reg.CreateAuction(h.env(seller, now), parcelID, "parcel 1 sale", big.NewInt(startPrice), deadline)
	require.NoError(h.t, err)
	return id
}

func TestCreateWithoutApprovalFails(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.tracker.RevokeApprovalForAll(seller, deed.AuctionModuleAddr))

	_, err := h.reg.CreateAuction(h.env(seller, 1), parcelID, "sale", big.NewInt(10), deadline)
	assert.Equal(t, auction.ErrNotApprovedOperator, err)
	assert.Equal(t, uint64(0), h.reg.AuctionCount(h.st), "failed create must leave no record")
}

func TestCreateAssignsSequentialIds(t *testing.T) {
	h := newHarness(t)
	id := h.create(1, 10)
	assert.Equal(t, deed.AuctionIDOrigin, id)
	assert.Equal(t, uint64(1), h.reg.AuctionCount(h.st))

	a, err := h.reg.GetAuction(h.st, id)
	require.NoError(t, err)
	assert.Equal(t, seller, a.Owner)
	assert.Equal(t, deed.AUCTION_OPEN, a.Status)
	assert.Equal(t, parcelID, a.DeedID)
	assert.Equal(t, []uint64{id}, h.reg.AuctionsByOwner(h.st, seller))

	// second deed, second auction
	parcel2 := deed.Blake2b([]byte("parcel-2"))
	require.NoError(t, h.tracker.Mint(seller, parcel2, "parcel 2"))
	require.NoError(t, h.tracker.Approve(seller, deed.AuctionModuleAddr, parcel2))
	id2, err := h.reg.CreateAuction(h.env(seller, 2), parcel2, "parcel 2 sale", big.NewInt(5), deadline)
	require.NoError(t, err)
	assert.Equal(t, id+1, id2)
}

func TestGetAuctionRange(t *testing.T) {
	h := newHarness(t)
	id := h.create(1, 10)

	_, err := h.reg.GetAuction(h.st, 0)
	assert.Equal(t, auction.ErrInvalidAuction, err)
	_, err = h.reg.GetAuction(h.st, id+1)
	assert.Equal(t, auction.ErrInvalidAuction, err)
	_, err = h.reg.GetAuction(h.st, id)
	assert.NoError(t, err)
}

func TestBidValidation(t *testing.T) {
	h := newHarness(t)
	id := h.create(1, 10)

	err := h.reg.BidOnAuction(h.env(bidderX, 2), id+1, big.NewInt(11))
	assert.Equal(t, auction.ErrInvalidAuction, err)

	err = h.reg.BidOnAuction(h.env(seller, 2), id, big.NewInt(11))
	assert.Equal(t, auction.ErrOwnerCannotBid, err)

	err = h.reg.BidOnAuction(h.env(bidderX, deadline+1), id, big.NewInt(11))
	assert.Equal(t, auction.ErrExpired, err)

	// first bid below the start price
	err = h.reg.BidOnAuction(h.env(bidderX, 2), id, big.NewInt(9))
	assert.Equal(t, auction.ErrBidTooLow, err)

	_, err = h.reg.CurrentBid(h.st, id)
	assert.Equal(t, auction.ErrNoBid, err)
}

func TestBidEscrowAndRefund(t *testing.T) {
	h := newHarness(t)
	id := h.create(1, 10)

	require.NoError(t, h.reg.BidOnAuction(h.env(bidderX, 2), id, big.NewInt(11)))
	assert.Equal(t, big.NewInt(1000-11), h.st.GetBalance(bidderX))
	assert.Equal(t, big.NewInt(11), h.st.GetBalance(deed.AuctionModuleAddr))

	// equal amount rejected, strictly greater required
	err := h.reg.BidOnAuction(h.env(bidderY, 3), id, big.NewInt(11))
	assert.Equal(t, auction.ErrBidTooLow, err)

	require.NoError(t, h.reg.BidOnAuction(h.env(bidderY, 4), id, big.NewInt(12)))
	// X fully refunded, only Y's funds held
	assert.Equal(t, big.NewInt(1000), h.st.GetBalance(bidderX))
	assert.Equal(t, big.NewInt(1000-12), h.st.GetBalance(bidderY))
	assert.Equal(t, big.NewInt(12), h.st.GetBalance(deed.AuctionModuleAddr))

	last, err := h.reg.CurrentBid(h.st, id)
	require.NoError(t, err)
	assert.Equal(t, bidderY, last.Bidder)
	assert.Equal(t, big.NewInt(12), last.Amount)

	// bid log is append-only and strictly increasing
	a, err := h.reg.GetAuction(h.st, id)
	require.NoError(t, err)
	require.Len(t, a.Bids, 2)
	for i := 1; i < len(a.Bids); i++ {
		assert.True(t, a.Bids[i].Amount.Cmp(a.Bids[i-1].Amount) > 0)
	}
}

func TestBidWithoutFundsFails(t *testing.T) {
	h := newHarness(t)
	id := h.create(1, 10)

	broke := deed.BytesToAddress([]byte("broke"))
	err := h.reg.BidOnAuction(h.env(broke, 2), id, big.NewInt(11))
	assert.Equal(t, auction.ErrTransferFailed, err)
	assert.Equal(t, big.NewInt(0), h.st.GetBalance(deed.AuctionModuleAddr))

	a, _ := h.reg.GetAuction(h.st, id)
	assert.Empty(t, a.Bids, "failed bid must not be recorded")
}

func TestFinalizeWithWinner(t *testing.T) {
	h := newHarness(t)
	id := h.create(1, 10)
	require.NoError(t, h.reg.BidOnAuction(h.env(bidderX, 2), id, big.NewInt(11)))
	require.NoError(t, h.reg.BidOnAuction(h.env(bidderY, 3), id, big.NewInt(12)))

	err := h.reg.FinalizeAuction(h.env(anyone, deadline-1), id)
	assert.Equal(t, auction.ErrNotEnded, err)

	// permissionless finalize after the deadline
	require.NoError(t, h.reg.FinalizeAuction(h.env(anyone, deadline), id))

	assert.Equal(t, big.NewInt(12), h.st.GetBalance(seller))
	assert.Equal(t, big.NewInt(0), h.st.GetBalance(deed.AuctionModuleAddr))
	owner, err := h.tracker.OwnerOf(parcelID)
	require.NoError(t, err)
	assert.Equal(t, bidderY, owner)

	a, _ := h.reg.GetAuction(h.st, id)
	assert.Equal(t, deed.AUCTION_FINALIZED, a.Status)

	// second finalize always fails, state unchanged
	err = h.reg.FinalizeAuction(h.env(anyone, deadline+5), id)
	assert.Equal(t, auction.ErrInvalidAuction, err)
	assert.Equal(t, big.NewInt(12), h.st.GetBalance(seller))

	// no bidding on a settled auction
	err = h.reg.BidOnAuction(h.env(bidderX, deadline), id, big.NewInt(100))
	assert.Equal(t, auction.ErrInvalidAuction, err)
}

func TestFinalizeWithoutBids(t *testing.T) {
	h := newHarness(t)
	id := h.create(1, 10)

	require.NoError(t, h.reg.FinalizeAuction(h.env(anyone, deadline+1), id))

	a, _ := h.reg.GetAuction(h.st, id)
	assert.Equal(t, deed.AUCTION_CANCELED, a.Status)

	// deed never left the seller, no funds moved
	owner, err := h.tracker.OwnerOf(parcelID)
	require.NoError(t, err)
	assert.Equal(t, seller, owner)
	assert.Equal(t, big.NewInt(0), h.st.GetBalance(seller))
	assert.Equal(t, big.NewInt(0), h.st.GetBalance(deed.AuctionModuleAddr))
}

func TestCancel(t *testing.T) {
	h := newHarness(t)
	id := h.create(1, 10)
	require.NoError(t, h.reg.BidOnAuction(h.env(bidderX, 2), id, big.NewInt(11)))

	err := h.reg.CancelAuction(h.env(bidderX, 3), id)
	assert.Equal(t, auction.ErrNotOwner, err)

	err = h.reg.CancelAuction(h.env(seller, deadline+1), id)
	assert.Equal(t, auction.ErrExpired, err)

	require.NoError(t, h.reg.CancelAuction(h.env(seller, 3), id))

	// X refunded in full, deed still with the seller
	assert.Equal(t, big.NewInt(1000), h.st.GetBalance(bidderX))
	assert.Equal(t, big.NewInt(0), h.st.GetBalance(deed.AuctionModuleAddr))
	owner, err := h.tracker.OwnerOf(parcelID)
	require.NoError(t, err)
	assert.Equal(t, seller, owner)

	a, _ := h.reg.GetAuction(h.st, id)
	assert.Equal(t, deed.AUCTION_CANCELED, a.Status)

	// terminal: no more bids, no finalize, no second cancel
	err = h.reg.BidOnAuction(h.env(bidderY, 4), id, big.NewInt(100))
	assert.Equal(t, auction.ErrInvalidAuction, err)
	err = h.reg.FinalizeAuction(h.env(anyone, deadline+1), id)
	assert.Equal(t, auction.ErrInvalidAuction, err)
	err = h.reg.CancelAuction(h.env(seller, 4), id)
	assert.Equal(t, auction.ErrInvalidAuction, err)
}

func TestRevokeApproval(t *testing.T) {
	h := newHarness(t)
	id := h.create(1, 10)

	err := h.reg.RevokeApproval(h.env(seller, 2), id)
	assert.Equal(t, auction.ErrNotCanceled, err)

	require.NoError(t, h.reg.CancelAuction(h.env(seller, 2), id))

	err = h.reg.RevokeApproval(h.env(bidderX, 3), id)
	assert.Equal(t, auction.ErrNotOwner, err)

	require.NoError(t, h.reg.RevokeApproval(h.env(seller, 3), id))
	op, err := h.tracker.ApprovedOperator(parcelID)
	require.NoError(t, err)
	assert.True(t, op.IsZero())

	// with the grant gone a new auction needs a fresh approval
	_, err = h.reg.CreateAuction(h.env(seller, 4), parcelID, "again", big.NewInt(1), deadline)
	assert.Equal(t, auction.ErrNotApprovedOperator, err)
}

func TestRefundFailureRejectsBid(t *testing.T) {
	h := newHarness(t)
	id := h.create(1, 10)
	require.NoError(t, h.reg.BidOnAuction(h.env(bidderX, 2), id, big.NewInt(11)))

	h.reg.SetFundSender(func(env *auction.AuctionEnv, to deed.Address, amount *big.Int) bool {
		return false
	})

	err := h.reg.BidOnAuction(h.env(bidderY, 3), id, big.NewInt(12))
	assert.Equal(t, auction.ErrTransferFailed, err)

	// rolled back atomically: Y keeps its funds, X's bid still highest
	assert.Equal(t, big.NewInt(1000), h.st.GetBalance(bidderY))
	assert.Equal(t, big.NewInt(11), h.st.GetBalance(deed.AuctionModuleAddr))
	last, err := h.reg.CurrentBid(h.st, id)
	require.NoError(t, err)
	assert.Equal(t, bidderX, last.Bidder)
}

func TestReentrantRefundRejected(t *testing.T) {
	h := newHarness(t)
	id := h.create(1, 10)
	require.NoError(t, h.reg.BidOnAuction(h.env(bidderX, 2), id, big.NewInt(11)))

	// the refund receiver tries to re-enter the registry mid-operation
	var inner error
	called := false
	h.reg.SetFundSender(func(env *auction.AuctionEnv, to deed.Address, amount *big.Int) bool {
		called = true
		inner = h.reg.BidOnAuction(env, id, big.NewInt(100))
		st := env.GetState()
		if !st.SubBalance(deed.AuctionModuleAddr, amount) {
			return false
		}
		st.AddBalance(to, amount)
		return true
	})

	require.NoError(t, h.reg.BidOnAuction(h.env(bidderY, 3), id, big.NewInt(12)))
	assert.True(t, called)
	assert.Equal(t, auction.ErrReentrantCall, inner)

	// outer bid committed exactly once
	last, err := h.reg.CurrentBid(h.st, id)
	require.NoError(t, err)
	assert.Equal(t, bidderY, last.Bidder)
	assert.Equal(t, big.NewInt(12), last.Amount)
	assert.Equal(t, big.NewInt(12), h.st.GetBalance(deed.AuctionModuleAddr))
}

func TestEventsEmittedOnCommitOnly(t *testing.T) {
	h := newHarness(t)

	env := h.env(seller, 1)
	_, err := h.reg.CreateAuction(env, deed.Blake2b([]byte("missing")), "sale", big.NewInt(1), deadline)
	require.Error(t, err)
	assert.Empty(t, env.GetEvents(), "failed operation must leave no events")

	env = h.env(seller, 1)
	id, err := h.reg.CreateAuction(env, parcelID, "sale", big.NewInt(10), deadline)
	require.NoError(t, err)
	require.Len(t, env.GetEvents(), 1)
	ev := env.GetEvents()[0]
	assert.Equal(t, auction.AuctionCreatedEvent, ev.Topics[0])
	assert.Equal(t, deed.Uint64ToBytes32(id), ev.Topics[1])

	env = h.env(bidderX, 2)
	require.NoError(t, h.reg.BidOnAuction(env, id, big.NewInt(11)))
	require.Len(t, env.GetEvents(), 1)
	assert.Equal(t, auction.BidAcceptedEvent, env.GetEvents()[0].Topics[0])
	require.Len(t, env.GetTransfers(), 1)
	assert.Equal(t, bidderX, env.GetTransfers()[0].Sender)
	assert.Equal(t, deed.AuctionModuleAddr, env.GetTransfers()[0].Recipient)
}
