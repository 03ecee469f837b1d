// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package auction

import "github.com/prometheus/client_golang/prometheus"

var (
	auctionsCreatedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auctions_created_total",
		Help: "Number of auctions created",
	})
	auctionsFinalizedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auctions_finalized_total",
		Help: "Number of auctions finalized with a winner",
	})
	auctionsCanceledCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auctions_canceled_total",
		Help: "Number of auctions canceled, including zero-bid closes",
	})
	bidsAcceptedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bids_accepted_total",
		Help: "Number of accepted bids",
	})
	escrowedFundsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "escrowed_funds",
		Help: "Funds currently held in escrow by the auction module account",
	})
)

func init() {
	prometheus.MustRegister(auctionsCreatedCounter)
	prometheus.MustRegister(auctionsFinalizedCounter)
	prometheus.MustRegister(auctionsCanceledCounter)
	prometheus.MustRegister(bidsAcceptedCounter)
	prometheus.MustRegister(escrowedFundsGauge)
}
