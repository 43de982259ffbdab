package services

import (
	"testing"
	"time"
)

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.GetConnectedClients() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("hub has %d clients, want %d", hub.GetConnectedClients(), want)
}

func TestBroadcastEvictsSlowClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Unbuffered send channel with no reader: the first broadcast cannot
	// deliver and must evict the client
	client := &Client{
		ID:       7,
		UserType: "customer",
		Send:     make(chan []byte),
		Hub:      hub,
	}

	hub.register <- client
	waitForClients(t, hub, 1)

	hub.BroadcastToUser(7, []byte(`{"type":"booking_confirmed"}`))
	if got := hub.GetConnectedClients(); got != 0 {
		t.Fatalf("slow client not evicted, %d clients remain", got)
	}

	// The read pump unregisters on disconnect; after an eviction this must
	// be a no-op, not a second close of the send channel
	hub.unregister <- client
	waitForClients(t, hub, 0)

	// Evicted channel is closed exactly once
	if _, open := <-client.Send; open {
		t.Fatal("evicted client's send channel still open")
	}
}

func TestBroadcastDeliversToMatchingUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	customer := &Client{ID: 1, UserType: "customer", Send: make(chan []byte, 4), Hub: hub}
	other := &Client{ID: 2, UserType: "customer", Send: make(chan []byte, 4), Hub: hub}

	hub.register <- customer
	hub.register <- other
	waitForClients(t, hub, 2)

	hub.SendRentalCompleted(1, RentalCompleted{BookingID: 9, VehicleID: 3, VehicleName: "Axio"})

	select {
	case msg := <-customer.Send:
		if len(msg) == 0 {
			t.Fatal("empty message delivered")
		}
	case <-time.After(time.Second):
		t.Fatal("targeted client received nothing")
	}

	select {
	case <-other.Send:
		t.Fatal("message delivered to the wrong user")
	default:
	}
}
