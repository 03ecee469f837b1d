// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"math/big"

	"github.com/meterio/deed-auction/deed"
	"github.com/meterio/deed-auction/tx"
)

// Event represents tx.Event that can be stored in db. Seq is the sequence
// number of the registry operation that emitted it.
type Event struct {
	Seq      uint64
	Index    uint32
	Time     uint64
	TxID     deed.Bytes32
	TxOrigin deed.Address
	Address  deed.Address
	Topics   [5]*deed.Bytes32
	Data     []byte
}

// newEvent converts tx.Event to Event.
func newEvent(seq uint64, index uint32, time uint64, txID deed.Bytes32, txOrigin deed.Address, txEvent *tx.Event) *Event {
	ev := &Event{
		Seq:      seq,
		Index:    index,
		Time:     time,
		TxID:     txID,
		TxOrigin: txOrigin,
		Address:  txEvent.Address,
		Data:     txEvent.Data,
	}
	for i := 0; i < len(txEvent.Topics) && i < len(ev.Topics); i++ {
		topic := txEvent.Topics[i]
		ev.Topics[i] = &topic
	}
	return ev
}

// Transfer represents tx.Transfer that can be stored in db.
type Transfer struct {
	Seq       uint64
	Index     uint32
	Time      uint64
	TxID      deed.Bytes32
	TxOrigin  deed.Address
	Sender    deed.Address
	Recipient deed.Address
	Amount    *big.Int
	Token     uint32
}

// newTransfer converts tx.Transfer to Transfer.
func newTransfer(seq uint64, index uint32, time uint64, txID deed.Bytes32, txOrigin deed.Address, transfer *tx.Transfer) *Transfer {
	return &Transfer{
		Seq:       seq,
		Index:     index,
		Time:      time,
		TxID:      txID,
		TxOrigin:  txOrigin,
		Sender:    transfer.Sender,
		Recipient: transfer.Recipient,
		Amount:    transfer.Amount,
		Token:     uint32(transfer.Token),
	}
}

type RangeType string

const (
	Seq  RangeType = "seq"
	Time RangeType = "time"
)

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

type Range struct {
	Unit RangeType
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

type EventCriteria struct {
	Address *deed.Address
	Topics  [5]*deed.Bytes32
}

// EventFilter filter
type EventFilter struct {
	CriteriaSet []*EventCriteria
	Range       *Range
	Options     *Options
	Order       Order //default asc
}

type TransferCriteria struct {
	TxOrigin  *deed.Address //who signed the operation
	Sender    *deed.Address //who sent tokens
	Recipient *deed.Address //who received tokens
}

// TransferFilter filter
type TransferFilter struct {
	TxID        *deed.Bytes32
	CriteriaSet []*TransferCriteria
	Range       *Range
	Options     *Options
	Order       Order //default asc
}
