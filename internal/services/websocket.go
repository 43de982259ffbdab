package services

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Client represents a WebSocket client
type Client struct {
	ID       uint
	UserType string
	Conn     *websocket.Conn
	Send     chan []byte
	Hub      *Hub
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	mutex      sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			log.Printf("Client %d connected", client.ID)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mutex.Unlock()
			log.Printf("Client %d disconnected", client.ID)

		case message := <-h.broadcast:
			// Write lock: slow clients are evicted while iterating
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// BroadcastToUser sends a message to a specific user. Takes the write lock
// because clients with a full send buffer are evicted in place.
func (h *Hub) BroadcastToUser(userID uint, message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		if client.ID == userID {
			select {
			case client.Send <- message:
			default:
				close(client.Send)
				delete(h.clients, client)
			}
		}
	}
}

// BroadcastToUserType sends a message to all users of a specific type
func (h *Hub) BroadcastToUserType(userType string, message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		if client.UserType == userType {
			select {
			case client.Send <- message:
			default:
				close(client.Send)
				delete(h.clients, client)
			}
		}
	}
}

// BroadcastToAll sends a message to every connected client
func (h *Hub) BroadcastToAll(message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		select {
		case client.Send <- message:
		default:
			close(client.Send)
			delete(h.clients, client)
		}
	}
}

// GetConnectedClients returns the number of connected clients
func (h *Hub) GetConnectedClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// WebSocket message types
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// BookingConfirmed notifies a customer that their booking was created
type BookingConfirmed struct {
	BookingID   uint      `json:"bookingId"`
	VehicleID   uint      `json:"vehicleId"`
	VehicleName string    `json:"vehicleName"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	TotalAmount float64   `json:"totalAmount"`
}

// BookingCancelled notifies a customer that a booking was cancelled
type BookingCancelled struct {
	BookingID   uint   `json:"bookingId"`
	VehicleID   uint   `json:"vehicleId"`
	VehicleName string `json:"vehicleName"`
	CancelledBy string `json:"cancelledBy"` // customer or admin
}

// RentalCompleted notifies a customer that their rental finished and can be rated
type RentalCompleted struct {
	BookingID   uint    `json:"bookingId"`
	VehicleID   uint    `json:"vehicleId"`
	VehicleName string  `json:"vehicleName"`
	TotalAmount float64 `json:"totalAmount"`
}

// PromoAnnouncement carries a promotional broadcast to all customers
type PromoAnnouncement struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	CouponCode string `json:"couponCode,omitempty"`
}

// SendBookingConfirmed pushes a booking confirmation to the customer
func (hub *Hub) SendBookingConfirmed(userID uint, confirmed BookingConfirmed) {
	message := WebSocketMessage{
		Type: "booking_confirmed",
		Data: confirmed,
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling booking confirmation: %v", err)
		return
	}

	hub.BroadcastToUser(userID, data)
}

// SendBookingCancelled pushes a cancellation notice to the customer
func (hub *Hub) SendBookingCancelled(userID uint, cancelled BookingCancelled) {
	message := WebSocketMessage{
		Type: "booking_cancelled",
		Data: cancelled,
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling booking cancellation: %v", err)
		return
	}

	hub.BroadcastToUser(userID, data)
}

// SendRentalCompleted pushes a completion notice to the customer
func (hub *Hub) SendRentalCompleted(userID uint, completed RentalCompleted) {
	message := WebSocketMessage{
		Type: "rental_completed",
		Data: completed,
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling rental completion: %v", err)
		return
	}

	hub.BroadcastToUser(userID, data)
}

// SendPromoAnnouncement pushes a promotional broadcast to all customers
func (hub *Hub) SendPromoAnnouncement(promo PromoAnnouncement) {
	message := WebSocketMessage{
		Type: "promo_announcement",
		Data: promo,
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling promo announcement: %v", err)
		return
	}

	hub.BroadcastToUserType("customer", data)
}

// HandleWebSocket handles WebSocket connections
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, userID uint, userType string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		ID:       userID,
		UserType: userType,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Hub:      hub,
	}

	client.Hub.register <- client

	// Start goroutines for reading and writing
	go client.writePump()
	go client.readPump()
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		// Clients only listen; inbound frames are logged and dropped
		var wsMessage WebSocketMessage
		if err := json.Unmarshal(message, &wsMessage); err != nil {
			log.Printf("Error unmarshaling WebSocket message: %v", err)
			continue
		}

		log.Printf("Ignoring inbound %q message from client %d", wsMessage.Type, c.ID)
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	defer c.Conn.Close()

	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("WebSocket write error: %v", err)
			return
		}
	}

	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}
