package api

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"lead-scoring/backend/internal/model"
	"lead-scoring/backend/internal/pipeline"
)

// ScoringEvent describes websocket payloads emitted during scoring runs.
type ScoringEvent struct {
	Type      string                 `json:"type"`
	RunID     string                 `json:"run_id"`
	Total     int                    `json:"total,omitempty"`
	Processed int                    `json:"processed,omitempty"`
	Index     *int                   `json:"index,omitempty"`
	Result    *model.LeadScoreResult `json:"result,omitempty"`
	Fallbacks int                    `json:"fallbacks,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// ScoringNotifier fans scoring progress out to websocket clients. It
// implements pipeline.Observer.
type ScoringNotifier struct {
	mu         sync.Mutex
	clients    map[*wsClient]struct{}
	lastStatus *ScoringEvent
}

// NewScoringNotifier constructs a notifier instance.
func NewScoringNotifier() *ScoringNotifier {
	return &ScoringNotifier{clients: make(map[*wsClient]struct{})}
}

// Register attaches a websocket connection and replays the latest status.
func (n *ScoringNotifier) Register(conn *websocket.Conn) *wsClient {
	client := &wsClient{conn: conn}
	n.mu.Lock()
	n.clients[client] = struct{}{}
	status := n.lastStatus
	n.mu.Unlock()

	if status != nil {
		_ = client.writeJSON(*status)
	}
	return client
}

// Unregister removes the websocket client from the notifier and closes the socket.
func (n *ScoringNotifier) Unregister(client *wsClient) {
	if client == nil {
		return
	}
	n.mu.Lock()
	delete(n.clients, client)
	n.mu.Unlock()
	_ = client.conn.Close()
}

// Broadcast sends the supplied event to all registered websocket clients.
func (n *ScoringNotifier) Broadcast(event ScoringEvent) {
	event.Timestamp = time.Now().UTC()

	n.mu.Lock()
	defer n.mu.Unlock()

	// Replayed status omits per-lead payloads.
	snapshot := event
	snapshot.Index = nil
	snapshot.Result = nil
	n.lastStatus = &snapshot

	for client := range n.clients {
		if err := client.writeJSON(event); err != nil {
			delete(n.clients, client)
			_ = client.conn.Close()
		}
	}
}

// LastStatus returns a copy of the most recent event, if any.
func (n *ScoringNotifier) LastStatus() *ScoringEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.lastStatus == nil {
		return nil
	}
	copy := *n.lastStatus
	return &copy
}

func (n *ScoringNotifier) RunStarted(runID string, total int) {
	n.Broadcast(ScoringEvent{Type: "started", RunID: runID, Total: total})
}

func (n *ScoringNotifier) LeadScored(p pipeline.Progress) {
	index := p.Index
	result := p.Result
	n.Broadcast(ScoringEvent{
		Type:      "progress",
		RunID:     p.RunID,
		Total:     p.Total,
		Processed: p.Processed,
		Index:     &index,
		Result:    &result,
	})
}

func (n *ScoringNotifier) RunCompleted(summary pipeline.Summary) {
	n.Broadcast(ScoringEvent{
		Type:      "completed",
		RunID:     summary.RunID,
		Total:     summary.Count,
		Processed: summary.Count,
		Fallbacks: summary.Fallbacks,
	})
}

func (c *wsClient) writeJSON(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(payload)
}
