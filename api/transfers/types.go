// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transfers

import (
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/meterio/deed-auction/api/events"
	"github.com/meterio/deed-auction/deed"
	"github.com/meterio/deed-auction/logdb"
)

type FilteredTransfer struct {
	Sender    deed.Address          `json:"sender"`
	Recipient deed.Address          `json:"recipient"`
	Amount    *math.HexOrDecimal256 `json:"amount"`
	Meta      events.LogMeta        `json:"meta"`
	Token     uint32                `json:"token"`
}

func convertTransfer(transfer *logdb.Transfer) *FilteredTransfer {
	v := math.HexOrDecimal256(*transfer.Amount)
	return &FilteredTransfer{
		Sender:    transfer.Sender,
		Recipient: transfer.Recipient,
		Amount:    &v,
		Token:     transfer.Token,
		Meta: events.LogMeta{
			Seq:      transfer.Seq,
			Time:     transfer.Time,
			TxID:     transfer.TxID,
			TxOrigin: transfer.TxOrigin,
		},
	}
}

type TransferFilter struct {
	TxID        *deed.Bytes32             `json:"txID"`
	CriteriaSet []*logdb.TransferCriteria `json:"criteriaSet"`
	Range       *logdb.Range              `json:"range"`
	Options     *logdb.Options            `json:"options"`
	Order       logdb.Order               `json:"order"`
}

func convertTransferFilter(filter *TransferFilter) *logdb.TransferFilter {
	return &logdb.TransferFilter{
		TxID:        filter.TxID,
		CriteriaSet: filter.CriteriaSet,
		Range:       filter.Range,
		Options:     filter.Options,
		Order:       filter.Order,
	}
}
