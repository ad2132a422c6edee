// Package server coordinates client registration, event fan-out, and
// connection cleanup for the Roomcast WebSocket system via the Hub type.
package server

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Hub manages all WebSocket client connections keyed by connection id and
// implements the Emitter surface the router fans events out through. It
// maintains client registration/unregistration and ensures thread-safe
// operations through mutex protection.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	registry   *Registry
	directory  *Directory
	router     *Router
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates and initializes a new Hub instance together with its
// registry, directory, and router. The returned Hub is ready to manage
// WebSocket connections once Run is started.
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	h.registry = NewRegistry()
	h.directory = NewDirectory(h.registry)
	h.router = NewRouter(h.registry, h.directory, NewFormatter(), h)
	return h
}

// GetRegisterChan returns the channel used for registering new clients to the hub.
// This channel is write-only from the caller's perspective.
func (h *Hub) GetRegisterChan() chan<- *Client {
	return h.register
}

// GetUnregisterChan returns the channel used for unregistering clients from the hub.
// This channel is write-only from the caller's perspective.
func (h *Hub) GetUnregisterChan() chan<- *Client {
	return h.unregister
}

// Router returns the hub's event router.
func (h *Hub) Router() *Router {
	return h.router
}

// Registry returns the hub's connection registry.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Directory returns the hub's room directory.
func (h *Hub) Directory() *Directory {
	return h.directory
}

func (h *Hub) safeSend(client *Client, message []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in safeSend: %v", r)
		}
	}()

	// Hold the lock during the entire send operation to prevent race conditions
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	// Check if client is still registered and not closed
	_, exists := h.clients[client.id]
	if !exists || client.closed {
		return false
	}

	// Try to send the message (channel might be closed, so we need to recover from panic)
	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// Run starts the hub's main event loop, handling client registration and
// unregistration. This method should be called in a separate goroutine as it
// runs indefinitely.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				log.Printf("Received nil client registration; skipping")
				continue
			}

			h.mutex.Lock()
			client.closed = false
			h.clients[client.id] = client
			clientCount := len(h.clients)
			h.mutex.Unlock()
			log.Printf("Client %s registered from %s. Total clients: %d", client.id, client.addr, clientCount)

			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				client.writePump()
			}()
			go func() {
				defer h.wg.Done()
				client.readPump()
			}()

			h.router.HandleConnect(client.id)

		case client := <-h.unregister:
			if client == nil {
				continue
			}

			h.mutex.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				client.closed = true
				clientCount := len(h.clients)
				h.mutex.Unlock()
				// Close the channel after releasing the lock
				close(client.send)
				log.Printf("Client %s unregistered from %s. Total clients: %d", client.id, client.addr, clientCount)
			} else {
				h.mutex.Unlock()
			}

			// Route the departure regardless of hub-map state; the registry's
			// remove is idempotent, so a second racing disconnect emits nothing.
			h.router.HandleDisconnect(client.id)
		}
	}
}

var hub = NewHub()

// encodeFrame marshals an outbound event frame, reporting failure instead of
// panicking so a bad payload only costs the one emission.
func (h *Hub) encodeFrame(event string, payload any) ([]byte, bool) {
	data, err := json.Marshal(OutboundEvent{Event: event, Payload: payload})
	if err != nil {
		log.Printf("Error encoding %q frame: %v", event, err)
		return nil, false
	}
	return data, true
}

// EmitTo sends an event to a single connection.
func (h *Hub) EmitTo(id, event string, payload any) {
	data, ok := h.encodeFrame(event, payload)
	if !ok {
		return
	}

	h.mutex.RLock()
	client := h.clients[id]
	h.mutex.RUnlock()
	if client == nil {
		return
	}

	if !h.safeSend(client, data) {
		h.removeFailedClients([]*Client{client})
	}
}

// EmitToRoom sends an event to every connection whose registry entry is in
// the given room, skipping excludeID when non-empty. Membership is resolved
// through the directory at emission time.
func (h *Hub) EmitToRoom(room, event string, payload any, excludeID string) {
	data, ok := h.encodeFrame(event, payload)
	if !ok {
		return
	}

	members := h.directory.MembersOf(room)

	h.mutex.RLock()
	targets := make([]*Client, 0, len(members))
	for _, member := range members {
		if excludeID != "" && member.ID == excludeID {
			continue
		}
		if client, ok := h.clients[member.ID]; ok {
			targets = append(targets, client)
		}
	}
	h.mutex.RUnlock()

	var clientsToRemove []*Client
	for _, client := range targets {
		if !h.safeSend(client, data) {
			clientsToRemove = append(clientsToRemove, client)
		}
	}
	h.removeFailedClients(clientsToRemove)
}

// EmitToAll sends an event to every connected client, joined or not.
func (h *Hub) EmitToAll(event string, payload any) {
	data, ok := h.encodeFrame(event, payload)
	if !ok {
		return
	}

	var clientsToRemove []*Client
	for _, client := range h.getClientSnapshot() {
		if !h.safeSend(client, data) {
			clientsToRemove = append(clientsToRemove, client)
		}
	}
	h.removeFailedClients(clientsToRemove)
}

// getClientSnapshot returns a thread-safe snapshot of all current clients
func (h *Hub) getClientSnapshot() []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

// removeFailedClients removes clients that failed to receive messages and
// closes their channels. Their connection teardown then flows through the
// normal unregister path, which routes the departure.
func (h *Hub) removeFailedClients(clientsToRemove []*Client) {
	if len(clientsToRemove) == 0 {
		return
	}

	h.mutex.Lock()
	var channelsToClose []chan []byte
	for _, client := range clientsToRemove {
		if _, exists := h.clients[client.id]; exists {
			delete(h.clients, client.id)
			client.closed = true
			channelsToClose = append(channelsToClose, client.send)
			log.Printf("Client %s from %s removed due to full send buffer", client.id, client.addr)
		}
	}
	h.mutex.Unlock()

	// Close channels after releasing the lock
	for _, ch := range channelsToClose {
		close(ch)
	}
}

// shutdownClients gracefully closes all active client connections
func (h *Hub) shutdownClients() {
	log.Println("Shutting down all client connections...")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	// Close all client connections
	for _, client := range clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil {
				if !isExpectedCloseError(err) {
					log.Printf("Error closing client connection from %s: %v", client.addr, err)
				}
			}
		}
	}

	log.Printf("Closed %d client connections", len(clients))
}

// Shutdown initiates graceful shutdown of the hub and waits for all goroutines to complete.
// It returns after all client connections are closed and goroutines have finished,
// or when the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Println("Initiating hub shutdown...")

	// Signal shutdown
	h.cancel()

	// Wait for Run() to complete
	<-h.done

	// Wait for all client goroutines to finish with timeout
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Println("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
