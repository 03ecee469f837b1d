// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/meterio/deed-auction/deed"
	"github.com/meterio/deed-auction/tx"
	"github.com/meterio/deed-auction/xenv"
)

// EventMessage is pushed to subscribers for every event of a committed
// registry operation.
type EventMessage struct {
	Address  deed.Address   `json:"address"`
	Topics   []deed.Bytes32 `json:"topics"`
	Data     string         `json:"data"`
	Time     uint64         `json:"time"`
	TxID     deed.Bytes32   `json:"txID"`
	TxOrigin deed.Address   `json:"txOrigin"`
}

func convertEvent(txCtx *xenv.TransactionContext, event *tx.Event) *EventMessage {
	return &EventMessage{
		Address:  event.Address,
		Topics:   event.Topics,
		Data:     hexutil.Encode(event.Data),
		Time:     txCtx.Time,
		TxID:     txCtx.ID,
		TxOrigin: txCtx.Origin,
	}
}

// EventFilter narrows the stream down to one emitting address and/or
// topic values. Zero fields match everything.
type EventFilter struct {
	Address *deed.Address
	Topic0  *deed.Bytes32
	Topic1  *deed.Bytes32
}

func (ef *EventFilter) Match(event *tx.Event) bool {
	if ef.Address != nil && *ef.Address != event.Address {
		return false
	}
	matchTopic := func(want *deed.Bytes32, i int) bool {
		if want == nil {
			return true
		}
		if i >= len(event.Topics) {
			return false
		}
		return *want == event.Topics[i]
	}
	return matchTopic(ef.Topic0, 0) && matchTopic(ef.Topic1, 1)
}
