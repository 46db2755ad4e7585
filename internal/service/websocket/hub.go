package websocket

import (
	"sync"

	"medaware/internal/logger"
)

// HubService tracks connected streaming clients.
type HubService struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	stopped    chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopped:    make(chan struct{}),
		logger:     logger,
	}
}

// Run processes registrations until stop is closed, then closes every client.
func (h *HubService) Run(stop <-chan struct{}) {
	defer close(h.stopped)

	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client.ID] = client
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Client %s connected. Total: %d", client.ID, total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				client.Close()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Client %s disconnected. Total: %d", client.ID, total)

		case <-stop:
			h.mutex.Lock()
			for id, client := range h.clients {
				client.Close()
				delete(h.clients, id)
			}
			h.mutex.Unlock()
			return
		}
	}
}

// Register adds client. After the hub stopped the client is closed instead.
func (h *HubService) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.stopped:
		client.Close()
	}
}

// Unregister removes and closes client.
func (h *HubService) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stopped:
		client.Close()
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
