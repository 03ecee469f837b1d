// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/meterio/deed-auction/deed"
	"github.com/meterio/deed-auction/tx"
	"github.com/meterio/deed-auction/xenv"
)

const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER NOT NULL,
	eventIndex INTEGER NOT NULL,
	time INTEGER NOT NULL,
	txID BLOB NOT NULL,
	txOrigin BLOB NOT NULL,
	address BLOB NOT NULL,
	topic0 BLOB,
	topic1 BLOB,
	topic2 BLOB,
	topic3 BLOB,
	topic4 BLOB,
	data BLOB
);
CREATE INDEX IF NOT EXISTS event_seq ON event(seq);
CREATE INDEX IF NOT EXISTS event_topic0 ON event(topic0);`

const transferTableSchema = `CREATE TABLE IF NOT EXISTS transfer (
	seq INTEGER NOT NULL,
	transferIndex INTEGER NOT NULL,
	time INTEGER NOT NULL,
	txID BLOB NOT NULL,
	txOrigin BLOB NOT NULL,
	sender BLOB NOT NULL,
	recipient BLOB NOT NULL,
	amount BLOB NOT NULL,
	token INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS transfer_seq ON transfer(seq);`

// LogDB stores the committed event and transfer logs of the registry in
// sqlite, for external indexers to query.
type LogDB struct {
	path          string
	db            *sql.DB
	driverVersion string
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			err := db.Close()
			if err != nil {
				fmt.Println("could not close logdb error:", err)
			}
		}
	}()
	if _, err := db.Exec(eventTableSchema + transferTableSchema); err != nil {
		return nil, err
	}

	driverVer, _, _ := sqlite3.Version()
	return &LogDB{
		path,
		db,
		driverVer,
	}, nil
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close close the log db.
func (db *LogDB) Close() {
	err := db.db.Close()
	if err != nil {
		fmt.Println("could not close logdb error:", err)
	}
}

func (db *LogDB) Path() string {
	return db.path
}

// NewestSeq returns the sequence number of the latest logged operation.
func (db *LogDB) NewestSeq() (uint64, error) {
	row := db.db.QueryRow(`SELECT COALESCE(MAX(seq), 0) FROM (
		SELECT seq FROM event UNION ALL SELECT seq FROM transfer)`)
	var seq uint64
	if err := row.Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}

// Log writes all events and transfers of one committed registry operation
// under the next sequence number. The write is atomic.
func (db *LogDB) Log(txCtx *xenv.TransactionContext, events tx.Events, transfers tx.Transfers) error {
	if len(events) == 0 && len(transfers) == 0 {
		return nil
	}
	seq, err := db.NewestSeq()
	if err != nil {
		return err
	}
	seq++

	sqlTx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer sqlTx.Rollback()

	for i, ev := range events {
		rec := newEvent(seq, uint32(i), txCtx.Time, txCtx.ID, txCtx.Origin, ev)
		if _, err := sqlTx.Exec(
			"INSERT INTO event VALUES(?,?,?,?,?,?,?,?,?,?,?,?)",
			rec.Seq, rec.Index, rec.Time,
			rec.TxID.Bytes(), rec.TxOrigin.Bytes(), rec.Address.Bytes(),
			topicValue(rec.Topics[0]), topicValue(rec.Topics[1]), topicValue(rec.Topics[2]),
			topicValue(rec.Topics[3]), topicValue(rec.Topics[4]),
			rec.Data,
		); err != nil {
			return err
		}
	}
	for i, tr := range transfers {
		rec := newTransfer(seq, uint32(i), txCtx.Time, txCtx.ID, txCtx.Origin, tr)
		if _, err := sqlTx.Exec(
			"INSERT INTO transfer VALUES(?,?,?,?,?,?,?,?,?)",
			rec.Seq, rec.Index, rec.Time,
			rec.TxID.Bytes(), rec.TxOrigin.Bytes(),
			rec.Sender.Bytes(), rec.Recipient.Bytes(),
			rec.Amount.Bytes(), rec.Token,
		); err != nil {
			return err
		}
	}
	return sqlTx.Commit()
}

func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, "SELECT * FROM event ORDER BY seq ASC,eventIndex ASC")
	}
	var args []interface{}
	stmt := "SELECT * FROM event WHERE 1"
	condition := "seq"
	if filter.Range != nil {
		if filter.Range.Unit == Time {
			condition = "time"
		}
		args = append(args, filter.Range.From)
		stmt += " AND " + condition + " >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND " + condition + " <= ? "
		}
	}
	for i, criteria := range filter.CriteriaSet {
		if i == 0 {
			stmt += " AND ( 1"
		} else {
			stmt += " OR ( 1"
		}
		if criteria.Address != nil {
			args = append(args, criteria.Address.Bytes())
			stmt += " AND address = ? "
		}
		for j, topic := range criteria.Topics {
			if topic != nil {
				args = append(args, topic.Bytes())
				stmt += fmt.Sprintf(" AND topic%v = ?", j)
			}
		}
		stmt += ")"
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC,eventIndex DESC "
	} else {
		stmt += " ORDER BY seq ASC,eventIndex ASC "
	}

	if filter.Options != nil {
		stmt += " limit ?, ? "
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, stmt, args...)
}

func (db *LogDB) FilterTransfers(ctx context.Context, filter *TransferFilter) ([]*Transfer, error) {
	if filter == nil {
		return db.queryTransfers(ctx, "SELECT * FROM transfer ORDER BY seq ASC,transferIndex ASC")
	}
	var args []interface{}
	stmt := "SELECT * FROM transfer WHERE 1"
	condition := "seq"
	if filter.Range != nil {
		if filter.Range.Unit == Time {
			condition = "time"
		}
		args = append(args, filter.Range.From)
		stmt += " AND " + condition + " >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND " + condition + " <= ? "
		}
	}
	if filter.TxID != nil {
		args = append(args, filter.TxID.Bytes())
		stmt += " AND txID = ? "
	}
	length := len(filter.CriteriaSet)
	if length > 0 {
		for i, criteria := range filter.CriteriaSet {
			if i == 0 {
				stmt += " AND (( 1 "
			} else {
				stmt += " OR ( 1 "
			}
			if criteria.TxOrigin != nil {
				args = append(args, criteria.TxOrigin.Bytes())
				stmt += " AND txOrigin = ? "
			}
			if criteria.Sender != nil {
				args = append(args, criteria.Sender.Bytes())
				stmt += " AND sender = ? "
			}
			if criteria.Recipient != nil {
				args = append(args, criteria.Recipient.Bytes())
				stmt += " AND recipient = ? "
			}
			if i == length-1 {
				stmt += " )) "
			} else {
				stmt += " ) "
			}
		}
	}
	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC,transferIndex DESC "
	} else {
		stmt += " ORDER BY seq ASC,transferIndex ASC "
	}
	if filter.Options != nil {
		stmt += " limit ?, ? "
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryTransfers(ctx, stmt, args...)
}

func (db *LogDB) queryEvents(ctx context.Context, stmt string, args ...interface{}) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq      uint64
			index    uint32
			time     uint64
			txID     []byte
			txOrigin []byte
			address  []byte
			topics   [5][]byte
			data     []byte
		)
		if err := rows.Scan(
			&seq,
			&index,
			&time,
			&txID,
			&txOrigin,
			&address,
			&topics[0],
			&topics[1],
			&topics[2],
			&topics[3],
			&topics[4],
			&data,
		); err != nil {
			return nil, err
		}
		event := &Event{
			Seq:      seq,
			Index:    index,
			Time:     time,
			TxID:     deed.BytesToBytes32(txID),
			TxOrigin: deed.BytesToAddress(txOrigin),
			Address:  deed.BytesToAddress(address),
			Data:     data,
		}
		for i, topic := range topics {
			if len(topic) > 0 {
				h := deed.BytesToBytes32(topic)
				event.Topics[i] = &h
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (db *LogDB) queryTransfers(ctx context.Context, stmt string, args ...interface{}) ([]*Transfer, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var transfers []*Transfer
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq       uint64
			index     uint32
			time      uint64
			txID      []byte
			txOrigin  []byte
			sender    []byte
			recipient []byte
			amount    []byte
			token     uint32
		)
		if err := rows.Scan(
			&seq,
			&index,
			&time,
			&txID,
			&txOrigin,
			&sender,
			&recipient,
			&amount,
			&token,
		); err != nil {
			return nil, err
		}
		trans := &Transfer{
			Seq:       seq,
			Index:     index,
			Time:      time,
			TxID:      deed.BytesToBytes32(txID),
			TxOrigin:  deed.BytesToAddress(txOrigin),
			Sender:    deed.BytesToAddress(sender),
			Recipient: deed.BytesToAddress(recipient),
			Amount:    new(big.Int).SetBytes(amount),
			Token:     token,
		}
		transfers = append(transfers, trans)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transfers, nil
}

func topicValue(topic *deed.Bytes32) []byte {
	if topic == nil {
		return nil
	}
	return topic.Bytes()
}
