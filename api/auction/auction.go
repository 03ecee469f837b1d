// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package auction

import (
	"math/big"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	lru "github.com/hashicorp/golang-lru"
	"github.com/meterio/deed-auction/api/utils"
	"github.com/meterio/deed-auction/auction"
	"github.com/meterio/deed-auction/deed"
	"github.com/meterio/deed-auction/logdb"
	"github.com/meterio/deed-auction/state"
	"github.com/meterio/deed-auction/tx"
	"github.com/meterio/deed-auction/xenv"
	"github.com/pkg/errors"
)

const summaryCacheSize = 512

// EventPublisher receives the event log of every committed operation.
// The subscriptions endpoint implements it.
type EventPublisher interface {
	PublishEvents(txCtx *xenv.TransactionContext, events tx.Events)
}

type Auction struct {
	reg     *auction.Registry
	creator *state.Creator
	logDB   *logdb.LogDB
	pub     EventPublisher
	cache   *lru.Cache // summaries of finalized/canceled auctions

	// serializes mutating requests: the state load, the registry
	// operation and the commit must act as one unit over the kv store,
	// or two requests could validate against stale snapshots and
	// last-writer-win each other's commits.
	mu sync.Mutex

	now func() uint64
}

func New(reg *auction.Registry, creator *state.Creator, logDB *logdb.LogDB) *Auction {
	cache, _ := lru.New(summaryCacheSize)
	return &Auction{
		reg:     reg,
		creator: creator,
		logDB:   logDB,
		cache:   cache,
		now:     func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// SetEventPublisher attaches the publisher fed on every commit.
func (at *Auction) SetEventPublisher(pub EventPublisher) {
	at.pub = pub
}

// SetTimeSource overrides the wall clock, for tests.
func (at *Auction) SetTimeSource(now func() uint64) {
	at.now = now
}

func (at *Auction) newTxCtx(origin deed.Address) *xenv.TransactionContext {
	id := uuid.New()
	return &xenv.TransactionContext{
		ID:     deed.BytesToBytes32(id[:]),
		Origin: origin,
		Time:   at.now(),
		Nonce:  uint64(time.Now().UnixNano()),
	}
}

// commit persists the operation outcome and feeds the log stream. Called
// only after the registry reported success.
func (at *Auction) commit(st *state.State, env *auction.AuctionEnv) error {
	if err := st.Commit(); err != nil {
		return err
	}
	if err := at.logDB.Log(env.GetTxCtx(), env.GetEvents(), env.GetTransfers()); err != nil {
		return err
	}
	if at.pub != nil {
		at.pub.PublishEvents(env.GetTxCtx(), env.GetEvents())
	}
	return nil
}

func parseAuctionID(req *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		return 0, utils.BadRequest(errors.WithMessage(err, "id"))
	}
	return id, nil
}

func parseAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, utils.BadRequest(errors.New("malformed amount"))
	}
	return amount, nil
}

// opError maps registry errors onto http status codes. Unknown auctions
// come back 404, a busy registry is 503 so clients know to retry, every
// other rejection is a 400 with the registry's reason in the body.
func opError(err error) error {
	switch err {
	case auction.ErrInvalidAuction, auction.ErrNoBid:
		return utils.HTTPError(err, http.StatusNotFound)
	case auction.ErrNotOwner, auction.ErrOwnerCannotBid, auction.ErrNotApprovedOperator:
		return utils.Forbidden(err)
	case auction.ErrReentrantCall:
		return utils.HTTPError(err, http.StatusServiceUnavailable)
	default:
		return utils.BadRequest(err)
	}
}

func (at *Auction) handleGetCount(w http.ResponseWriter, req *http.Request) error {
	st, err := at.creator.NewState()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &utils.M{"count": at.reg.AuctionCount(st)})
}

func (at *Auction) handleGetAuctionList(w http.ResponseWriter, req *http.Request) error {
	st, err := at.creator.NewState()
	if err != nil {
		return err
	}
	var ids []uint64
	if owner := req.URL.Query().Get("owner"); owner != "" {
		addr, err := deed.ParseAddress(owner)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "owner"))
		}
		ids = at.reg.AuctionsByOwner(st, addr)
	} else {
		count := at.reg.AuctionCount(st)
		for id := deed.AuctionIDOrigin; id <= count; id++ {
			ids = append(ids, id)
		}
	}
	summaries := make([]*AuctionSummary, 0, len(ids))
	for _, id := range ids {
		a, err := at.reg.GetAuction(st, id)
		if err != nil {
			return err
		}
		summaries = append(summaries, convertSummary(a))
	}
	return utils.WriteJSON(w, summaries)
}

func (at *Auction) handleGetAuctionByID(w http.ResponseWriter, req *http.Request) error {
	id, err := parseAuctionID(req)
	if err != nil {
		return err
	}
	if cached, ok := at.cache.Get(id); ok {
		return utils.WriteJSON(w, cached)
	}
	st, err := at.creator.NewState()
	if err != nil {
		return err
	}
	a, err := at.reg.GetAuction(st, id)
	if err != nil {
		return opError(err)
	}
	detail := convertDetail(a)
	if !a.IsOpen() {
		// terminal auctions never change again
		at.cache.Add(id, detail)
	}
	return utils.WriteJSON(w, detail)
}

func (at *Auction) handleGetCurrentBid(w http.ResponseWriter, req *http.Request) error {
	id, err := parseAuctionID(req)
	if err != nil {
		return err
	}
	st, err := at.creator.NewState()
	if err != nil {
		return err
	}
	bid, err := at.reg.CurrentBid(st, id)
	if err != nil {
		return opError(err)
	}
	return utils.WriteJSON(w, convertBid(bid))
}

func (at *Auction) handleCreateAuction(w http.ResponseWriter, req *http.Request) error {
	var body CreateAuctionRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	startPrice, err := parseAmount(body.StartPrice)
	if err != nil {
		return err
	}
	at.mu.Lock()
	defer at.mu.Unlock()
	st, err := at.creator.NewState()
	if err != nil {
		return err
	}
	env := auction.NewAuctionEnv(at.reg, st, at.newTxCtx(body.Caller))
	id, err := at.reg.CreateAuction(env, body.DeedID, body.Title, startPrice, body.Deadline)
	if err != nil {
		return opError(err)
	}
	if err := at.commit(st, env); err != nil {
		return err
	}
	return utils.WriteJSON(w, &TxResult{TxID: env.GetTxCtx().ID, AuctionID: id})
}

func (at *Auction) handleBid(w http.ResponseWriter, req *http.Request) error {
	id, err := parseAuctionID(req)
	if err != nil {
		return err
	}
	var body BidRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	amount, err := parseAmount(body.Amount)
	if err != nil {
		return err
	}
	at.mu.Lock()
	defer at.mu.Unlock()
	st, err := at.creator.NewState()
	if err != nil {
		return err
	}
	env := auction.NewAuctionEnv(at.reg, st, at.newTxCtx(body.Caller))
	if err := at.reg.BidOnAuction(env, id, amount); err != nil {
		return opError(err)
	}
	if err := at.commit(st, env); err != nil {
		return err
	}
	return utils.WriteJSON(w, &TxResult{TxID: env.GetTxCtx().ID, AuctionID: id})
}

func (at *Auction) handleAction(run func(*auction.AuctionEnv, uint64) error) utils.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		id, err := parseAuctionID(req)
		if err != nil {
			return err
		}
		var body ActionRequest
		if err := utils.ParseJSON(req.Body, &body); err != nil {
			return utils.BadRequest(errors.WithMessage(err, "body"))
		}
		at.mu.Lock()
		defer at.mu.Unlock()
		st, err := at.creator.NewState()
		if err != nil {
			return err
		}
		env := auction.NewAuctionEnv(at.reg, st, at.newTxCtx(body.Caller))
		if err := run(env, id); err != nil {
			return opError(err)
		}
		if err := at.commit(st, env); err != nil {
			return err
		}
		return utils.WriteJSON(w, &TxResult{TxID: env.GetTxCtx().ID, AuctionID: id})
	}
}

func (at *Auction) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").Methods("GET").HandlerFunc(utils.WrapHandlerFunc(at.handleGetAuctionList))
	sub.Path("").Methods("POST").HandlerFunc(utils.WrapHandlerFunc(at.handleCreateAuction))
	sub.Path("/count").Methods("GET").HandlerFunc(utils.WrapHandlerFunc(at.handleGetCount))
	sub.Path("/{id}").Methods("GET").HandlerFunc(utils.WrapHandlerFunc(at.handleGetAuctionByID))
	sub.Path("/{id}/currentbid").Methods("GET").HandlerFunc(utils.WrapHandlerFunc(at.handleGetCurrentBid))
	sub.Path("/{id}/bids").Methods("POST").HandlerFunc(utils.WrapHandlerFunc(at.handleBid))
	sub.Path("/{id}/finalize").Methods("POST").HandlerFunc(utils.WrapHandlerFunc(at.handleAction(at.reg.FinalizeAuction)))
	sub.Path("/{id}/cancel").Methods("POST").HandlerFunc(utils.WrapHandlerFunc(at.handleAction(at.reg.CancelAuction)))
	sub.Path("/{id}/revoke").Methods("POST").HandlerFunc(utils.WrapHandlerFunc(at.handleAction(at.reg.RevokeApproval)))
}
