// Copyright (c) 2020 The Meter.io developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/meterio/deed-auction/api/utils"
	"github.com/meterio/deed-auction/deed"
	"github.com/meterio/deed-auction/tx"
	"github.com/meterio/deed-auction/xenv"
	"github.com/pkg/errors"
)

const (
	sendQueueSize = 128
	writeTimeout  = 10 * time.Second
	pingPeriod    = 30 * time.Second
)

var log = slog.With("pkg", "subscriptions")

type subscriber struct {
	filter *EventFilter
	queue  chan []byte
	quit   chan struct{}
}

// Subscriptions streams committed auction events over websocket.
type Subscriptions struct {
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[*subscriber]struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

func New(allowedOrigins []string) *Subscriptions {
	checkOrigin := func(req *http.Request) bool {
		origin := req.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, allowed := range allowedOrigins {
			if allowed == "*" || allowed == origin {
				return true
			}
		}
		return false
	}
	return &Subscriptions{
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
		subs:     make(map[*subscriber]struct{}),
		done:     make(chan struct{}),
	}
}

// PublishEvents fans the events of one committed operation out to all
// matching subscribers. Slow subscribers are dropped instead of blocking
// the publisher.
func (s *Subscriptions) PublishEvents(txCtx *xenv.TransactionContext, events tx.Events) {
	if len(events) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range events {
		msg, err := json.Marshal(convertEvent(txCtx, event))
		if err != nil {
			log.Error("failed to encode event message", "err", err)
			continue
		}
		for sub := range s.subs {
			if !sub.filter.Match(event) {
				continue
			}
			select {
			case sub.queue <- msg:
			default:
				log.Warn("dropping slow subscriber")
				close(sub.quit)
				delete(s.subs, sub)
			}
		}
	}
}

func parseFilter(req *http.Request) (*EventFilter, error) {
	query := req.URL.Query()
	filter := &EventFilter{}
	if addr := query.Get("addr"); addr != "" {
		parsed, err := deed.ParseAddress(addr)
		if err != nil {
			return nil, errors.WithMessage(err, "addr")
		}
		filter.Address = &parsed
	}
	if t0 := query.Get("t0"); t0 != "" {
		parsed, err := deed.ParseBytes32(t0)
		if err != nil {
			return nil, errors.WithMessage(err, "t0")
		}
		filter.Topic0 = &parsed
	}
	if t1 := query.Get("t1"); t1 != "" {
		parsed, err := deed.ParseBytes32(t1)
		if err != nil {
			return nil, errors.WithMessage(err, "t1")
		}
		filter.Topic1 = &parsed
	}
	return filter, nil
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	filter, err := parseFilter(req)
	if err != nil {
		return utils.BadRequest(err)
	}
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// upgrader has already responded
		return nil
	}

	sub := &subscriber{
		filter: filter,
		queue:  make(chan []byte, sendQueueSize),
		quit:   make(chan struct{}),
	}
	s.mu.Lock()
	select {
	case <-s.done:
		s.mu.Unlock()
		conn.Close()
		return nil
	default:
	}
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(1)
	go s.serve(conn, sub)

	// the read loop only watches for the peer closing the conn
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.remove(sub)
	return nil
}

func (s *Subscriptions) serve(conn *websocket.Conn, sub *subscriber) {
	defer s.wg.Done()
	defer conn.Close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg := <-sub.queue:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-sub.quit:
			return
		case <-s.done:
			return
		}
	}
}

func (s *Subscriptions) remove(sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub]; ok {
		close(sub.quit)
		delete(s.subs, sub)
	}
}

// Close terminates all subscriber connections and waits for their write
// loops to exit.
func (s *Subscriptions) Close() {
	s.mu.Lock()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	for sub := range s.subs {
		delete(s.subs, sub)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/event").Methods("GET").HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEvents))
}
