package logging

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	defaultHistoryCap = 500
	defaultMaxClients = 16
	writeWait         = 5 * time.Second
)

var ErrMaxConnectionsReached = errors.New("maximum log stream connections reached")

// LogMessage is one log line as sent to stream clients.
type LogMessage struct {
	ID        uint64                 `json:"id"`
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

type streamClient struct {
	conn *websocket.Conn
	send chan LogMessage
}

// Stream keeps recent log lines and fans them out to websocket clients.
type Stream struct {
	seq uint64

	mu         sync.RWMutex
	clients    map[*streamClient]struct{}
	maxClients int

	historyMu  sync.RWMutex
	history    []LogMessage
	historyCap int
}

func NewStream(historyCap, maxClients int) *Stream {
	if historyCap <= 0 {
		historyCap = defaultHistoryCap
	}
	if maxClients <= 0 {
		maxClients = defaultMaxClients
	}
	return &Stream{
		clients:    make(map[*streamClient]struct{}),
		maxClients: maxClients,
		history:    make([]LogMessage, 0, historyCap),
		historyCap: historyCap,
	}
}

// Broadcast records a message and queues it for every client. Slow
// clients drop messages rather than block logging.
func (s *Stream) Broadcast(level, message string, fields map[string]interface{}) {
	msg := LogMessage{
		ID:        atomic.AddUint64(&s.seq, 1),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Message:   message,
		Fields:    fields,
	}
	s.appendHistory(msg)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

func (s *Stream) appendHistory(msg LogMessage) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	s.history = append(s.history, msg)
	if len(s.history) > s.historyCap {
		excess := len(s.history) - s.historyCap
		s.history = append([]LogMessage(nil), s.history[excess:]...)
	}
}

// Since returns up to limit messages newer than cursor, the next cursor
// and whether more are pending. cursor 0 returns the most recent lines.
func (s *Stream) Since(cursor uint64, limit int) ([]LogMessage, uint64, bool) {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > s.historyCap {
		limit = s.historyCap
	}
	total := len(s.history)
	start := total
	if cursor == 0 {
		start = 0
		if total > limit {
			start = total - limit
		}
	} else {
		for i, msg := range s.history {
			if msg.ID > cursor {
				start = i
				break
			}
		}
	}
	if start >= total {
		return []LogMessage{}, cursor, false
	}

	end := start + limit
	if end > total {
		end = total
	}
	out := make([]LogMessage, end-start)
	copy(out, s.history[start:end])
	return out, out[len(out)-1].ID, end < total
}

// Serve streams messages to conn until the peer disconnects. It blocks.
func (s *Stream) Serve(conn *websocket.Conn) error {
	c := &streamClient{conn: conn, send: make(chan LogMessage, 64)}

	s.mu.Lock()
	if len(s.clients) >= s.maxClients {
		s.mu.Unlock()
		_ = conn.Close()
		return ErrMaxConnectionsReached
	}
	s.clients[c] = struct{}{}
	count := len(s.clients)
	s.mu.Unlock()
	log.Debugf("log stream client connected (total: %d)", count)

	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	// The read loop only detects the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return err
			}
		case <-done:
			return nil
		}
	}
}

// ClientCount returns the number of connected stream clients.
func (s *Stream) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Hook returns a logrus hook feeding this stream for levels at or above threshold.
func (s *Stream) Hook(threshold log.Level) log.Hook {
	return &streamHook{stream: s, threshold: threshold}
}

type streamHook struct {
	stream    *Stream
	threshold log.Level
}

func (h *streamHook) Levels() []log.Level {
	levels := make([]log.Level, 0, len(log.AllLevels))
	for _, l := range log.AllLevels {
		if l <= h.threshold {
			levels = append(levels, l)
		}
	}
	return levels
}

func (h *streamHook) Fire(entry *log.Entry) error {
	fields := make(map[string]interface{}, len(entry.Data))
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		fields[k] = v
	}
	h.stream.Broadcast(entry.Level.String(), entry.Message, fields)
	return nil
}
