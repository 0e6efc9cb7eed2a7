package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/claude/fittrack/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Auth is the API key, not the Origin; browser clients pass the key
	// as a query parameter.
	CheckOrigin: func(*http.Request) bool { return true },
}

const wsWriteTimeout = 10 * time.Second

// snapshotMessage is one live update pushed to the client: the full
// current contents of a single collection.
type snapshotMessage struct {
	Collection string            `json:"collection"`
	Documents  []json.RawMessage `json:"documents"`
}

// handleWS streams collection snapshots for the request's profile. On
// connect the client receives one snapshot per collection, then a new
// snapshot whenever a collection changes.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	type feed struct {
		name string
		ch   <-chan []store.Document
	}
	var feeds []feed
	for _, name := range []string{store.CollectionWorkouts, store.CollectionWeightLog, store.CollectionPlans} {
		ch, stop, err := s.gw.Subscribe(ctx, s.collPath(r, name))
		if err != nil {
			s.log.Error("websocket subscribe", "collection", name, "error", err)
			return
		}
		defer stop()
		feeds = append(feeds, feed{name: name, ch: ch})
	}

	// The read loop exists only to notice the peer going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case docs, ok := <-feeds[0].ch:
			if !ok || !s.sendSnapshot(conn, feeds[0].name, docs) {
				return
			}
		case docs, ok := <-feeds[1].ch:
			if !ok || !s.sendSnapshot(conn, feeds[1].name, docs) {
				return
			}
		case docs, ok := <-feeds[2].ch:
			if !ok || !s.sendSnapshot(conn, feeds[2].name, docs) {
				return
			}
		}
	}
}

func (s *Server) sendSnapshot(conn *websocket.Conn, name string, docs []store.Document) bool {
	msg := snapshotMessage{Collection: name, Documents: make([]json.RawMessage, 0, len(docs))}
	for _, d := range docs {
		merged, err := withID(d)
		if err != nil {
			s.log.Error("websocket snapshot", "collection", name, "error", err)
			continue
		}
		msg.Documents = append(msg.Documents, merged)
	}
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		return false
	}
	return true
}
