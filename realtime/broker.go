package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Event is one realtime notification pushed to connected dashboards.
type Event struct {
	Type     string      `json:"type"` // new_sale, sale_status, new_return, return_status
	BranchID uuid.UUID   `json:"branch_id"`
	Payload  interface{} `json:"payload"`
}

// Client is one connected SSE subscriber.
type Client struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	BranchID uuid.UUID // uuid.Nil subscribes to all branches
	Channel  chan []byte
}

// Broker fans events out to connected clients, keyed by branch.
type Broker struct {
	clients map[uuid.UUID]map[uuid.UUID]*Client // branchID -> clientID -> client
	mu      sync.RWMutex
}

func NewBroker() *Broker {
	return &Broker{
		clients: make(map[uuid.UUID]map[uuid.UUID]*Client),
	}
}

// Register adds a subscriber for the given branch. Pass uuid.Nil as branchID
// to receive events from every branch (management dashboards).
func (b *Broker) Register(userID uuid.UUID, branchID uuid.UUID) *Client {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.clients[branchID] == nil {
		b.clients[branchID] = make(map[uuid.UUID]*Client)
	}

	client := &Client{
		ID:       uuid.New(),
		UserID:   userID,
		BranchID: branchID,
		Channel:  make(chan []byte, 10),
	}

	b.clients[branchID][client.ID] = client
	return client
}

// Unregister removes a subscriber and closes its channel.
func (b *Broker) Unregister(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if branchClients, exists := b.clients[client.BranchID]; exists {
		if _, exists := branchClients[client.ID]; exists {
			close(client.Channel)
			delete(branchClients, client.ID)
		}
		if len(branchClients) == 0 {
			delete(b.clients, client.BranchID)
		}
	}
}

// Publish sends an event to the subscribers of its branch plus the
// all-branch subscribers. Slow clients are skipped rather than blocked on.
func (b *Broker) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}

	b.send(event.BranchID, data)
	if event.BranchID != uuid.Nil {
		b.send(uuid.Nil, data)
	}
}

func (b *Broker) send(branchID uuid.UUID, data []byte) {
	for clientID, client := range b.clients[branchID] {
		select {
		case client.Channel <- data:
		default:
			// Channel is full, skip this client
			log.Printf("Warning: event channel full for client %s, skipping", clientID)
		}
	}
}

// ClientCount reports the number of connected subscribers.
func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := 0
	for _, branchClients := range b.clients {
		total += len(branchClients)
	}
	return total
}
