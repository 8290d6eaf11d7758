package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/verifix/backend/internal/domain/entities"
	"github.com/verifix/backend/internal/domain/providers"
)

// solutionReader looks up a solution's current state for the polling
// fallback of the status stream.
type solutionReader interface {
	GetByID(ctx context.Context, id string) (*entities.Solution, error)
}

// SSEHandler streams investigation status transitions to clients over
// Server-Sent Events.
type SSEHandler struct {
	eventBus  providers.EventBus
	solutions solutionReader
	inventory inventoryReader

	pollInterval      time.Duration
	heartbeatInterval time.Duration

	clients map[string]map[chan *entities.InvestigationEvent]bool // channel -> clients
	mu      sync.RWMutex
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus, solutions solutionReader, inventory inventoryReader) *SSEHandler {
	return &SSEHandler{
		eventBus:          eventBus,
		solutions:         solutions,
		inventory:         inventory,
		pollInterval:      2 * time.Second,
		heartbeatInterval: 30 * time.Second,
		clients:           make(map[string]map[chan *entities.InvestigationEvent]bool),
	}
}

// StreamSolutionStatus handles SSE connections for investigation progress
// GET /api/solutions/{id}/status
//
// Events arrive from the bus while the pipeline is publishing; a polling
// fallback against the repository covers clients that connect after the
// investigation finished or when the bus drops a message. The stream ends
// after the terminal event is delivered.
func (h *SSEHandler) StreamSolutionStatus(w http.ResponseWriter, r *http.Request) {
	solutionID := r.PathValue("id")
	if solutionID == "" {
		respondWithError(w, http.StatusBadRequest, "solution ID is required")
		return
	}

	solution, err := h.solutions.GetByID(r.Context(), solutionID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Create client channel
	clientChan := make(chan *entities.InvestigationEvent, 10)
	channel := providers.GetSolutionChannel(solutionID)

	// Register client
	h.registerClient(channel, clientChan)
	defer h.unregisterClient(channel, clientChan)

	// Subscribe to events. Without a bus the polling fallback still
	// observes every persisted transition.
	var eventChan <-chan *entities.InvestigationEvent
	if h.eventBus != nil {
		eventChan, err = h.eventBus.Subscribe(r.Context(), channel)
		if err != nil {
			log.Printf("Failed to subscribe to channel %s: %v", channel, err)
			return
		}
	}

	// Send initial connection event with the current status
	h.sendEvent(w, "connected", map[string]interface{}{
		"solution_id": solutionID,
		"status":      solution.Status,
		"timestamp":   time.Now(),
	})
	flusher.Flush()

	lastStatus := solution.Status
	if lastStatus.IsTerminal() {
		h.sendTerminal(r.Context(), w, flusher, solution)
		return
	}

	// Start forwarding events
	if eventChan != nil {
		go h.forwardEvents(r.Context(), eventChan, clientChan)
	}

	poll := time.NewTicker(h.pollInterval)
	defer poll.Stop()
	heartbeat := time.NewTicker(h.heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Printf("Client disconnected from solution stream: %s", solutionID)
			return
		case <-heartbeat.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case <-poll.C:
			current, err := h.solutions.GetByID(r.Context(), solutionID)
			if err != nil {
				log.Printf("Warning: status poll for solution %s failed: %v", solutionID, err)
				continue
			}
			if current.Status == lastStatus {
				continue
			}
			lastStatus = current.Status
			if current.Status.IsTerminal() {
				h.sendTerminal(r.Context(), w, flusher, current)
				return
			}
			h.sendEvent(w, string(entities.EventTypeStatus), &entities.InvestigationEvent{
				SolutionID: solutionID,
				EventType:  entities.EventTypeStatus,
				Status:     current.Status,
				Timestamp:  time.Now(),
			})
			flusher.Flush()
		case event := <-clientChan:
			if event == nil {
				continue
			}
			lastStatus = event.Status
			h.sendEvent(w, string(event.EventType), event)
			flusher.Flush()
			if event.Status.IsTerminal() {
				return
			}
		}
	}
}

// sendTerminal emits the final event for an already-finished
// investigation, attaching the solution and its inventory.
func (h *SSEHandler) sendTerminal(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, solution *entities.Solution) {
	event := &entities.InvestigationEvent{
		SolutionID: solution.ID,
		EventType:  entities.EventTypeSolutionReady,
		Status:     solution.Status,
		Solution:   solution,
		Timestamp:  time.Now(),
	}
	if solution.Status == entities.StatusError {
		event.EventType = entities.EventTypeErrored
		event.Message = solution.Text
	} else if solution.InventoryID != "" {
		inventory, err := h.inventory.GetBySolutionID(ctx, solution.ID)
		if err != nil {
			log.Printf("Warning: failed to load inventory for solution %s: %v", solution.ID, err)
		} else {
			event.Inventory = inventory
		}
	}
	h.sendEvent(w, string(event.EventType), event)
	flusher.Flush()
}

// forwardEvents forwards events from the event bus to a client channel
func (h *SSEHandler) forwardEvents(ctx context.Context, eventChan <-chan *entities.InvestigationEvent, clientChan chan<- *entities.InvestigationEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			select {
			case clientChan <- event:
			default:
				// Client channel full, skip event
			}
		}
	}
}

// registerClient registers a client for a channel
func (h *SSEHandler) registerClient(channel string, clientChan chan *entities.InvestigationEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[channel] == nil {
		h.clients[channel] = make(map[chan *entities.InvestigationEvent]bool)
	}
	h.clients[channel][clientChan] = true
	log.Printf("Client registered for channel: %s (total: %d)", channel, len(h.clients[channel]))
}

// unregisterClient unregisters a client from a channel
func (h *SSEHandler) unregisterClient(channel string, clientChan chan *entities.InvestigationEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.clients[channel]; exists {
		delete(clients, clientChan)
		log.Printf("Client unregistered from channel: %s (remaining: %d)", channel, len(clients))

		if len(clients) == 0 {
			delete(h.clients, channel)
		}
	}
}

// sendEvent writes a single SSE frame
func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("Failed to marshal SSE event: %v", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload)
}
