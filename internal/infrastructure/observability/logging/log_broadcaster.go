// Package logging provides the log broadcaster for real-time log streaming.
package logging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// LogEntry represents a single log entry to be sent to the client.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Channel   string `json:"channel"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// Client represents a single connected client listening for logs.
type Client struct {
	id      string
	Channel chan []byte
	filters AppliedFilters
}

// AppliedFilters defines the filtering criteria for a client.
type AppliedFilters struct {
	Channel Channel
	Level   slog.Level
}

// LogBroadcaster manages clients and broadcasts log messages.
type LogBroadcaster struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	mu         sync.RWMutex
	logger     *slog.Logger
	stop       chan struct{}
}

var (
	broadcaster *LogBroadcaster
	once        sync.Once
)

// GetBroadcaster initializes and returns the singleton LogBroadcaster instance.
func GetBroadcaster() *LogBroadcaster {
	once.Do(func() {
		broadcaster = &LogBroadcaster{
			clients:    make(map[*Client]bool),
			register:   make(chan *Client),
			unregister: make(chan *Client),
			broadcast:  make(chan []byte, 1000),
			logger:     slog.Default().With("component", "LogBroadcaster"),
			stop:       make(chan struct{}),
		}
		go broadcaster.run()
	})
	return broadcaster
}

// run is the central loop that manages the broadcaster's state and operations.
func (b *LogBroadcaster) run() {
	for {
		select {
		case <-b.stop:
			return
		case client := <-b.register:
			b.mu.Lock()
			b.clients[client] = true
			b.mu.Unlock()
		case client := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client.Channel)
			}
			b.mu.Unlock()
		case message := <-b.broadcast:
			b.distribute(message)
		}
	}
}

// distribute sends a log message to all clients whose filters match.
func (b *LogBroadcaster) distribute(message []byte) {
	var entry LogEntry
	if err := json.Unmarshal(message, &entry); err != nil {
		b.logger.Error("Failed to unmarshal log entry for distribution", "error", err)
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for client := range b.clients {
		// "all" channel matches every log.
		channelMatch := client.filters.Channel == "all" || client.filters.Channel == Channel(entry.Channel)
		levelMatch := entry.Level >= client.filters.Level.String()

		if channelMatch && levelMatch {
			select {
			case client.Channel <- message:
			default:
				// Slow client, drop the message rather than block logging.
			}
		}
	}
}

// SubmitLog sends a log entry to the broadcaster without blocking.
func (b *LogBroadcaster) SubmitLog(entry LogEntry) {
	message, err := json.Marshal(entry)
	if err != nil {
		b.logger.Error("Failed to marshal log entry for broadcast", "error", err)
		return
	}

	select {
	case b.broadcast <- message:
	default:
		fmt.Println("Log broadcaster channel full. Log message dropped.")
	}
}

// NewClient creates a new client for the broadcaster.
func (b *LogBroadcaster) NewClient(filters AppliedFilters) *Client {
	return &Client{
		id:      fmt.Sprintf("%d", time.Now().UnixNano()),
		Channel: make(chan []byte, 100),
		filters: filters,
	}
}

// Shutdown gracefully stops the broadcaster.
func (b *LogBroadcaster) Shutdown() {
	close(b.stop)
}

// RegisterClient adds a new client.
func (b *LogBroadcaster) RegisterClient(client *Client) {
	b.register <- client
}

// UnregisterClient removes a client.
func (b *LogBroadcaster) UnregisterClient(client *Client) {
	b.unregister <- client
}
