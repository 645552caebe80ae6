// Package notify exposes the engine's reparse dispatches to editor hosts
// over WebSocket and accepts their document-save notifications in return.
// It follows a hub pattern: one goroutine owns the client set, and all
// registration, unregistration, and broadcasting flows through channels.
package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/templink/internal/logging"
)

// Message is the wire format in both directions.
type Message struct {
	Type      string `json:"type"`
	Document  string `json:"document,omitempty"`
	Import    string `json:"import,omitempty"`
	Path      string `json:"path,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

const (
	// MessageTypeReparse announces a dispatched reparse to clients.
	MessageTypeReparse = "reparse"
	// MessageTypeSave is sent by clients when a document buffer is saved.
	MessageTypeSave = "save"
)

// SaveFunc receives save paths reported by connected clients.
type SaveFunc func(path string)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Broadcaster fans reparse events out to every connected client.
type Broadcaster struct {
	logger logging.Logger
	onSave SaveFunc

	clients    map[*client]struct{}
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	countReq   chan chan int

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
	done         chan struct{}
}

// NewBroadcaster creates a broadcaster and starts its hub. onSave may be nil
// when save notifications from clients are not wired.
func NewBroadcaster(onSave SaveFunc, logger logging.Logger) *Broadcaster {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())

	b := &Broadcaster{
		logger:     logger.WithComponent("notify"),
		onSave:     onSave,
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client, 32),
		unregister: make(chan *client, 32),
		countReq:   make(chan chan int),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}

	go b.runHub()

	return b
}

// BroadcastReparse announces one reparse dispatch to all clients. Safe to
// call from any goroutine; a full broadcast queue drops the event rather
// than blocking the engine.
func (b *Broadcaster) BroadcastReparse(docPath, importPath string) {
	data, err := json.Marshal(Message{
		Type:      MessageTypeReparse,
		Document:  docPath,
		Import:    importPath,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}

	select {
	case b.broadcast <- data:
	case <-b.ctx.Done():
	default:
	}
}

// HandleWebSocket upgrades the request and manages the client until it
// disconnects.
func (b *Broadcaster) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		b.logger.Warn(r.Context(), err, "websocket upgrade failed", "remote", r.RemoteAddr)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 64)}

	select {
	case b.register <- c:
	case <-b.ctx.Done():
		conn.Close(websocket.StatusServiceRestart, "shutting down")
		return
	}

	go b.writePump(c)
	b.readPump(c)
}

// ClientCount reports the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	reply := make(chan int, 1)
	select {
	case b.countReq <- reply:
		return <-reply
	case <-b.ctx.Done():
		return 0
	}
}

// Shutdown closes every client connection and stops the hub.
func (b *Broadcaster) Shutdown() {
	b.shutdownOnce.Do(func() {
		b.cancel()
		<-b.done
	})
}

func (b *Broadcaster) runHub() {
	defer close(b.done)

	for {
		select {
		case <-b.ctx.Done():
			for c := range b.clients {
				close(c.send)
				c.conn.Close(websocket.StatusNormalClosure, "shutting down")
			}
			return
		case c := <-b.register:
			b.clients[c] = struct{}{}
			b.logger.Debug(b.ctx, "client connected", "clients", len(b.clients))
		case c := <-b.unregister:
			if _, ok := b.clients[c]; ok {
				delete(b.clients, c)
				close(c.send)
			}
		case data := <-b.broadcast:
			for c := range b.clients {
				select {
				case c.send <- data:
				default:
					// Slow client; drop the event for it.
				}
			}
		case reply := <-b.countReq:
			reply <- len(b.clients)
		}
	}
}

func (b *Broadcaster) writePump(c *client) {
	for data := range c.send {
		ctx, cancel := context.WithTimeout(b.ctx, 5*time.Second)
		err := c.conn.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			break
		}
	}
}

func (b *Broadcaster) readPump(c *client) {
	defer func() {
		select {
		case b.unregister <- c:
		case <-b.ctx.Done():
		}
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, data, err := c.conn.Read(b.ctx)
		if err != nil {
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			b.logger.Debug(b.ctx, "ignoring malformed client message")
			continue
		}

		if msg.Type == MessageTypeSave && msg.Path != "" && b.onSave != nil {
			b.onSave(msg.Path)
		}
	}
}
