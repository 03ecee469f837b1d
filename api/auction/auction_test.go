// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package auction_test

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	auctionapi "github.com/meterio/deed-auction/api/auction"
	"github.com/meterio/deed-auction/auction"
	"github.com/meterio/deed-auction/deed"
	"github.com/meterio/deed-auction/deedtracker"
	"github.com/meterio/deed-auction/logdb"
	"github.com/meterio/deed-auction/lvldb"
	"github.com/meterio/deed-auction/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	seller   = deed.BytesToAddress([]byte("seller"))
	bidder   = deed.BytesToAddress([]byte("bidder"))
	rival    = deed.BytesToAddress([]byte("rival"))
	parcelID = deed.BytesToBytes32([]byte("parcel-1"))
)

type testServer struct {
	ts      *httptest.Server
	clock   *uint64
	creator *state.Creator
}

func initAuctionServer(t *testing.T) *testServer {
	kv, err := lvldb.NewMem()
	require.NoError(t, err)
	creator := state.NewCreator(kv)

	st, err := creator.NewState()
	require.NoError(t, err)
	tracker := deedtracker.New(deed.DeedRegistryAddr, st)
	require.NoError(t, tracker.Mint(seller, parcelID, "parcel one"))
	require.NoError(t, tracker.Approve(seller, deed.AuctionModuleAddr, parcelID))
	st.SetBalance(bidder, big.NewInt(1000))
	st.SetBalance(rival, big.NewInt(1000))
	require.NoError(t, st.Commit())

	db, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(db.Close)

	now := uint64(100)
	api := auctionapi.New(auction.New(), creator, db)
	api.SetTimeSource(func() uint64 { return now })

	router := mux.NewRouter()
	api.Mount(router, "/auctions")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return &testServer{ts: ts, clock: &now, creator: creator}
}

func httpPost(t *testing.T, url string, obj interface{}) (int, []byte) {
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	res, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	return res.StatusCode, body
}

func httpGet(t *testing.T, url string) (int, []byte) {
	res, err := http.Get(url)
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	return res.StatusCode, body
}

func createAuction(t *testing.T, s *testServer) uint64 {
	status, body := httpPost(t, s.ts.URL+"/auctions", &auctionapi.CreateAuctionRequest{
		Caller:     seller,
		DeedID:     parcelID,
		Title:      "parcel one",
		StartPrice: "10",
		Deadline:   200,
	})
	require.Equal(t, http.StatusOK, status, string(body))
	var result auctionapi.TxResult
	require.NoError(t, json.Unmarshal(body, &result))
	require.False(t, result.TxID.IsZero())
	return result.AuctionID
}

func TestCreateAndGetAuction(t *testing.T) {
	s := initAuctionServer(t)
	id := createAuction(t, s)
	assert.Equal(t, uint64(1), id)

	status, body := httpGet(t, s.ts.URL+"/auctions/1")
	require.Equal(t, http.StatusOK, status)
	var detail auctionapi.AuctionDetail
	require.NoError(t, json.Unmarshal(body, &detail))
	assert.Equal(t, "parcel one", detail.Title)
	assert.Equal(t, seller, detail.Owner)
	assert.Equal(t, deed.GetStatusName(deed.AUCTION_OPEN), detail.Status)
	assert.Equal(t, 0, detail.BidCount)

	status, body = httpGet(t, s.ts.URL+"/auctions/count")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"count":1}`, string(body))
}

func TestGetUnknownAuction(t *testing.T) {
	s := initAuctionServer(t)
	status, _ := httpGet(t, s.ts.URL+"/auctions/99")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestBidAndCurrentBid(t *testing.T) {
	s := initAuctionServer(t)
	createAuction(t, s)

	status, _ := httpGet(t, s.ts.URL+"/auctions/1/currentbid")
	assert.Equal(t, http.StatusNotFound, status)

	status, body := httpPost(t, s.ts.URL+"/auctions/1/bids", &auctionapi.BidRequest{
		Caller: bidder,
		Amount: "25",
	})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = httpGet(t, s.ts.URL+"/auctions/1/currentbid")
	require.Equal(t, http.StatusOK, status)
	var bid auctionapi.Bid
	require.NoError(t, json.Unmarshal(body, &bid))
	assert.Equal(t, bidder, bid.Bidder)
	assert.Equal(t, "25", bid.Amount)
}

func TestBidRejections(t *testing.T) {
	s := initAuctionServer(t)
	createAuction(t, s)

	// below start price
	status, _ := httpPost(t, s.ts.URL+"/auctions/1/bids", &auctionapi.BidRequest{
		Caller: bidder,
		Amount: "5",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	// the seller bidding on its own auction
	status, _ = httpPost(t, s.ts.URL+"/auctions/1/bids", &auctionapi.BidRequest{
		Caller: seller,
		Amount: "25",
	})
	assert.Equal(t, http.StatusForbidden, status)

	// malformed amount
	status, _ = httpPost(t, s.ts.URL+"/auctions/1/bids", &auctionapi.BidRequest{
		Caller: bidder,
		Amount: "not-a-number",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestFinalizeFlow(t *testing.T) {
	s := initAuctionServer(t)
	createAuction(t, s)

	status, body := httpPost(t, s.ts.URL+"/auctions/1/bids", &auctionapi.BidRequest{
		Caller: bidder,
		Amount: "25",
	})
	require.Equal(t, http.StatusOK, status, string(body))

	// still running
	status, _ = httpPost(t, s.ts.URL+"/auctions/1/finalize", &auctionapi.ActionRequest{Caller: bidder})
	assert.Equal(t, http.StatusBadRequest, status)

	*s.clock = 300
	status, body = httpPost(t, s.ts.URL+"/auctions/1/finalize", &auctionapi.ActionRequest{Caller: bidder})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = httpGet(t, s.ts.URL+"/auctions/1")
	require.Equal(t, http.StatusOK, status)
	var detail auctionapi.AuctionDetail
	require.NoError(t, json.Unmarshal(body, &detail))
	assert.Equal(t, deed.GetStatusName(deed.AUCTION_FINALIZED), detail.Status)
}

func TestCancelRequiresOwner(t *testing.T) {
	s := initAuctionServer(t)
	createAuction(t, s)

	status, _ := httpPost(t, s.ts.URL+"/auctions/1/cancel", &auctionapi.ActionRequest{Caller: bidder})
	assert.Equal(t, http.StatusForbidden, status)

	status, body := httpPost(t, s.ts.URL+"/auctions/1/cancel", &auctionapi.ActionRequest{Caller: seller})
	require.Equal(t, http.StatusOK, status, string(body))
}

// Concurrent mutating requests must act as one load-operate-commit unit
// each: an equal counter-bid validated against a stale snapshot would be
// accepted alongside the standing bid, debiting both bidders while only
// one bid stays recorded.
func TestConcurrentBidsSerialized(t *testing.T) {
	s := initAuctionServer(t)
	createAuction(t, s)

	bidders := []deed.Address{bidder, rival, bidder, rival, bidder, rival, bidder, rival}
	statuses := make([]int, len(bidders))
	var wg sync.WaitGroup
	for i, caller := range bidders {
		wg.Add(1)
		go func(i int, caller deed.Address) {
			defer wg.Done()
			data, err := json.Marshal(&auctionapi.BidRequest{Caller: caller, Amount: "25"})
			if err != nil {
				return
			}
			res, err := http.Post(s.ts.URL+"/auctions/1/bids", "application/json", bytes.NewReader(data))
			if err != nil {
				return
			}
			io.Copy(io.Discard, res.Body)
			res.Body.Close()
			statuses[i] = res.StatusCode
		}(i, caller)
	}
	wg.Wait()

	accepted := 0
	for _, status := range statuses {
		if status == http.StatusOK {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted, "exactly one of the equal bids may win")

	status, body := httpGet(t, s.ts.URL+"/auctions/1")
	require.Equal(t, http.StatusOK, status)
	var detail auctionapi.AuctionDetail
	require.NoError(t, json.Unmarshal(body, &detail))
	require.Equal(t, 1, detail.BidCount)
	assert.Equal(t, "25", detail.HighestBid.Amount)

	// escrow must hold exactly the standing bid; every losing bidder is whole
	st, err := s.creator.NewState()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(25), st.GetBalance(deed.AuctionModuleAddr))
	total := new(big.Int).Add(st.GetBalance(bidder), st.GetBalance(rival))
	assert.Equal(t, big.NewInt(1975), total)
}

func TestListByOwner(t *testing.T) {
	s := initAuctionServer(t)
	createAuction(t, s)

	status, body := httpGet(t, s.ts.URL+"/auctions?owner="+seller.String())
	require.Equal(t, http.StatusOK, status)
	var summaries []*auctionapi.AuctionSummary
	require.NoError(t, json.Unmarshal(body, &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, uint64(1), summaries[0].ID)

	status, body = httpGet(t, s.ts.URL+"/auctions?owner="+bidder.String())
	require.Equal(t, http.StatusOK, status)
	summaries = nil
	require.NoError(t, json.Unmarshal(body, &summaries))
	assert.Len(t, summaries, 0)
}
