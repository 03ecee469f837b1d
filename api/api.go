// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	auctionapi "github.com/meterio/deed-auction/api/auction"
	"github.com/meterio/deed-auction/api/deeds"
	"github.com/meterio/deed-auction/api/events"
	"github.com/meterio/deed-auction/api/subscriptions"
	"github.com/meterio/deed-auction/api/transfers"
	"github.com/meterio/deed-auction/auction"
	"github.com/meterio/deed-auction/logdb"
	"github.com/meterio/deed-auction/state"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// New return api router
func New(reg *auction.Registry, stateCreator *state.Creator, logDB *logdb.LogDB, allowedOrigins string) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(allowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	subs := subscriptions.New(origins)

	auctionAPI := auctionapi.New(reg, stateCreator, logDB)
	auctionAPI.SetEventPublisher(subs)
	auctionAPI.Mount(router, "/auctions")

	deeds.New(stateCreator).
		Mount(router, "/deeds")
	events.New(logDB).
		Mount(router, "/logs/event")
	transfers.New(logDB).
		Mount(router, "/logs/transfer")
	subs.Mount(router, "/subscriptions")

	router.Path("/metrics").Handler(promhttp.Handler())

	return handlers.CORS(
			handlers.AllowedOrigins(origins),
			handlers.AllowedHeaders([]string{"content-type"}))(router).ServeHTTP,
		subs.Close // subscriptions handles hijacked conns, which need to be closed
}
