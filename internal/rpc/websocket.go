package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/LeJamon/goAssetLock/internal/core/escrow"
	"github.com/LeJamon/goAssetLock/internal/logging"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
	wsSendBuffer = 256
)

// StreamMessage is one frame of the event stream.
type StreamMessage struct {
	Type  string       `json:"type"`
	Event escrow.Event `json:"event"`
}

// Hub fans escrow events out to websocket subscribers. It implements
// escrow.Sink. Subscribers pick events with the query parameters kind
// (repeatable), sender, receiver, creator and token.
type Hub struct {
	upgrader websocket.Upgrader
	logger   logging.Logger

	mu     sync.RWMutex
	subs   map[*subscriber]struct{}
	closed bool
}

type subscriber struct {
	conn   *websocket.Conn
	filter escrow.Filter
	send   chan []byte
	once   sync.Once
	done   chan struct{}
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.done) })
}

// NewHub creates an empty hub.
func NewHub(logger logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
		subs:   make(map[*subscriber]struct{}),
	}
}

// ServeHTTP upgrades the connection and streams matching events until the
// client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, rpcErr := EventsParams{
		Kinds:    q["kind"],
		Sender:   q.Get("sender"),
		Receiver: q.Get("receiver"),
		Creator:  q.Get("creator"),
		Token:    q.Get("token"),
	}.Filter()
	if rpcErr != nil {
		http.Error(w, rpcErr.Message, http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	sub := &subscriber{
		conn:   conn,
		filter: filter,
		send:   make(chan []byte, wsSendBuffer),
		done:   make(chan struct{}),
	}
	if !h.add(sub) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(wsWriteWait))
		conn.Close()
		return
	}
	h.logger.Debug("websocket subscriber connected", "client", remoteIP(r.RemoteAddr))

	go h.writePump(sub)
	h.readPump(sub)
}

func (h *Hub) add(sub *subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.subs[sub] = struct{}{}
	return true
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
	sub.close()
}

// readPump discards client frames; it exists to process control frames
// and notice disconnects.
func (h *Hub) readPump(sub *subscriber) {
	defer h.remove(sub)

	sub.conn.SetReadLimit(4096)
	sub.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read failed", "err", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(sub *subscriber) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
	}()

	for {
		select {
		case <-sub.done:
			sub.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			sub.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-sub.send:
			sub.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := sub.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Debug("websocket send failed", "err", err)
				h.remove(sub)
				return
			}
		case <-ticker.C:
			sub.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(sub)
				return
			}
		}
	}
}

// Publish implements escrow.Sink. A subscriber whose buffer is full is
// disconnected rather than allowed to stall the ledger.
func (h *Hub) Publish(_ context.Context, ev escrow.Event) error {
	msg, err := json.Marshal(StreamMessage{Type: "escrowEvent", Event: ev})
	if err != nil {
		return err
	}

	h.mu.RLock()
	var slow []*subscriber
	for sub := range h.subs {
		if !sub.filter.Match(ev) {
			continue
		}
		select {
		case sub.send <- msg:
		default:
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range slow {
		h.logger.Warn("dropping slow websocket subscriber", "seq", ev.Seq)
		h.remove(sub)
	}
	return nil
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := h.subs
	h.subs = make(map[*subscriber]struct{})
	h.mu.Unlock()

	for sub := range subs {
		sub.close()
	}
}

// streamQuery renders the live-stream criteria of p as query parameters.
func streamQuery(p EventsParams) url.Values {
	q := url.Values{}
	for _, k := range p.Kinds {
		q.Add("kind", k)
	}
	for k, v := range map[string]string{
		"sender": p.Sender, "receiver": p.Receiver, "creator": p.Creator, "token": p.Token,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	return q
}
