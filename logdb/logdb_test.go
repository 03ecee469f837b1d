// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/meterio/deed-auction/deed"
	"github.com/meterio/deed-auction/logdb"
	"github.com/meterio/deed-auction/tx"
	"github.com/meterio/deed-auction/xenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	origin  = deed.BytesToAddress([]byte("origin"))
	bidder  = deed.BytesToAddress([]byte("bidder"))
	topicA  = deed.Blake2b([]byte("topic-a"))
	topicB  = deed.Blake2b([]byte("topic-b"))
)

func newCtx(nonce uint64) *xenv.TransactionContext {
	return &xenv.TransactionContext{
		ID:     deed.Blake2b([]byte{byte(nonce)}),
		Origin: origin,
		Time:   100 + nonce,
		Nonce:  nonce,
	}
}

func TestLogAndFilterEvents(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	ev1 := &tx.Event{Address: deed.AuctionModuleAddr, Topics: []deed.Bytes32{topicA, deed.Uint64ToBytes32(1)}, Data: []byte("one")}
	ev2 := &tx.Event{Address: deed.AuctionModuleAddr, Topics: []deed.Bytes32{topicB, deed.Uint64ToBytes32(1)}, Data: []byte("two")}

	require.NoError(t, db.Log(newCtx(1), tx.Events{ev1}, nil))
	require.NoError(t, db.Log(newCtx(2), tx.Events{ev2}, nil))

	seq, err := db.NewestSeq()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), seq)

	all, err := db.FilterEvents(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, topicA, *all[0].Topics[0])
	assert.Equal(t, []byte("one"), all[0].Data)

	// filter by topic0
	byTopic, err := db.FilterEvents(context.Background(), &logdb.EventFilter{
		CriteriaSet: []*logdb.EventCriteria{{Topics: [5]*deed.Bytes32{&topicB}}},
	})
	require.NoError(t, err)
	require.Len(t, byTopic, 1)
	assert.Equal(t, []byte("two"), byTopic[0].Data)

	// descending order
	desc, err := db.FilterEvents(context.Background(), &logdb.EventFilter{Order: logdb.DESC})
	require.NoError(t, err)
	require.Len(t, desc, 2)
	assert.Equal(t, uint64(2), desc[0].Seq)
}

func TestLogAndFilterTransfers(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	tr := &tx.Transfer{
		Sender:    bidder,
		Recipient: deed.AuctionModuleAddr,
		Amount:    big.NewInt(42),
		Token:     deed.NATIVE,
	}
	require.NoError(t, db.Log(newCtx(1), nil, tx.Transfers{tr}))

	all, err := db.FilterTransfers(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, bidder, all[0].Sender)
	assert.Equal(t, big.NewInt(42), all[0].Amount)

	bySender, err := db.FilterTransfers(context.Background(), &logdb.TransferFilter{
		CriteriaSet: []*logdb.TransferCriteria{{Sender: &bidder}},
	})
	require.NoError(t, err)
	assert.Len(t, bySender, 1)

	other := deed.BytesToAddress([]byte("other"))
	none, err := db.FilterTransfers(context.Background(), &logdb.TransferFilter{
		CriteriaSet: []*logdb.TransferCriteria{{Sender: &other}},
	})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRangeFilter(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	for i := uint64(1); i <= 5; i++ {
		ev := &tx.Event{Address: deed.AuctionModuleAddr, Topics: []deed.Bytes32{topicA}, Data: []byte{byte(i)}}
		require.NoError(t, db.Log(newCtx(i), tx.Events{ev}, nil))
	}

	got, err := db.FilterEvents(context.Background(), &logdb.EventFilter{
		Range: &logdb.Range{Unit: logdb.Seq, From: 2, To: 4},
	})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	limited, err := db.FilterEvents(context.Background(), &logdb.EventFilter{
		Options: &logdb.Options{Offset: 1, Limit: 2},
	})
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, uint64(2), limited[0].Seq)
}
