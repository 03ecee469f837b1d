// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/meterio/deed-auction/deed"
	"github.com/meterio/deed-auction/logdb"
)

type TopicSet struct {
	Topic0 *deed.Bytes32 `json:"topic0"`
	Topic1 *deed.Bytes32 `json:"topic1"`
	Topic2 *deed.Bytes32 `json:"topic2"`
	Topic3 *deed.Bytes32 `json:"topic3"`
	Topic4 *deed.Bytes32 `json:"topic4"`
}

// LogMeta tells which operation a log entry belongs to.
type LogMeta struct {
	Seq      uint64       `json:"seq"`
	Time     uint64       `json:"time"`
	TxID     deed.Bytes32 `json:"txID"`
	TxOrigin deed.Address `json:"txOrigin"`
}

// FilteredEvent only comes from one module address
type FilteredEvent struct {
	Address deed.Address    `json:"address"`
	Topics  []*deed.Bytes32 `json:"topics"`
	Data    string          `json:"data"`
	Meta    LogMeta         `json:"meta"`
}

// convert a logdb.Event into a json format Event
func convertEvent(event *logdb.Event) *FilteredEvent {
	fe := FilteredEvent{
		Address: event.Address,
		Data:    hexutil.Encode(event.Data),
		Meta: LogMeta{
			Seq:      event.Seq,
			Time:     event.Time,
			TxID:     event.TxID,
			TxOrigin: event.TxOrigin,
		},
	}
	fe.Topics = make([]*deed.Bytes32, 0)
	for i := 0; i < 5; i++ {
		if event.Topics[i] != nil {
			fe.Topics = append(fe.Topics, event.Topics[i])
		}
	}
	return &fe
}

func (e *FilteredEvent) String() string {
	return fmt.Sprintf(`
		Event(
			address:  %v,
			topics:   %v,
			data:     %v,
			meta: (seq  %v,
				time     %v,
				txID     %v,
				txOrigin %v)
			)`,
		e.Address,
		e.Topics,
		e.Data,
		e.Meta.Seq,
		e.Meta.Time,
		e.Meta.TxID,
		e.Meta.TxOrigin,
	)
}

type EventCriteria struct {
	Address *deed.Address `json:"address"`
	TopicSet
}

type EventFilter struct {
	CriteriaSet []*EventCriteria `json:"criteriaSet"`
	Range       *logdb.Range     `json:"range"`
	Options     *logdb.Options   `json:"options"`
	Order       logdb.Order      `json:"order"`
}

func convertEventFilter(filter *EventFilter) *logdb.EventFilter {
	f := &logdb.EventFilter{
		Range:   filter.Range,
		Options: filter.Options,
		Order:   filter.Order,
	}
	if len(filter.CriteriaSet) > 0 {
		criterias := make([]*logdb.EventCriteria, len(filter.CriteriaSet))
		for i, criteria := range filter.CriteriaSet {
			var topics [5]*deed.Bytes32
			topics[0] = criteria.Topic0
			topics[1] = criteria.Topic1
			topics[2] = criteria.Topic2
			topics[3] = criteria.Topic3
			topics[4] = criteria.Topic4
			criterias[i] = &logdb.EventCriteria{
				Address: criteria.Address,
				Topics:  topics,
			}
		}
		f.CriteriaSet = criterias
	}
	return f
}
