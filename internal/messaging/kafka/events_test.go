package kafka

import (
	"encoding/json"
	"testing"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

func TestNewConfirmationEvent(t *testing.T) {
	event := NewConfirmationEvent(domain.OrderConfirmation{OrderReference: "ORD-1"})

	if event.EventID == "" {
		t.Fatal("event id must be assigned")
	}
	if event.EventType != EventTypeOrderConfirmed {
		t.Fatalf("unexpected event type %q", event.EventType)
	}
	if event.Timestamp.IsZero() {
		t.Fatal("timestamp must be set")
	}
	if event.Confirmation.OrderReference != "ORD-1" {
		t.Fatalf("unexpected reference %q", event.Confirmation.OrderReference)
	}
}

func TestConfirmationEvent_JSONRoundTrip(t *testing.T) {
	event := NewConfirmationEvent(domain.OrderConfirmation{OrderReference: "ORD-1"})

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded ConfirmationEvent
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.EventID != event.EventID || decoded.Confirmation.OrderReference != "ORD-1" {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
}
