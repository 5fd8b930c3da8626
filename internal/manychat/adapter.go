// Package manychat renders availability as ManyChat v2 dynamic blocks so a
// chat flow can present bookable times as reply buttons.
package manychat

import "github.com/clipline/booking-platform/internal/reservations"

// Payload is the ManyChat dynamic block envelope.
type Payload struct {
	Version string  `json:"version"`
	Content Content `json:"content"`
}

type Content struct {
	Messages []Message `json:"messages"`
}

type Message struct {
	Type    string   `json:"type"`
	Text    string   `json:"text"`
	Buttons []Button `json:"buttons,omitempty"`
}

// Button is a reply button; Payload round-trips the slot value so the flow
// can hand it straight back to the hold endpoint.
type Button struct {
	Type    string `json:"type"`
	Caption string `json:"caption"`
	Payload string `json:"payload"`
}

// FromAvailability maps resolved availability into a dynamic block: one text
// message with a reply button per free slot, or empty-state copy.
func FromAvailability(avail *reservations.Availability) Payload {
	msg := Message{Type: "text"}
	if len(avail.Choices) == 0 {
		msg.Text = "No available times for this date. Please choose another date."
		return textPayload(msg.Text)
	}

	msg.Text = "Select an available time:"
	msg.Buttons = make([]Button, 0, len(avail.Choices))
	for _, choice := range avail.Choices {
		msg.Buttons = append(msg.Buttons, Button{
			Type:    "reply",
			Caption: choice.Title,
			Payload: choice.Value,
		})
	}
	return Payload{Version: "v2", Content: Content{Messages: []Message{msg}}}
}

// textPayload builds a block with a single plain text message.
func textPayload(text string) Payload {
	return Payload{
		Version: "v2",
		Content: Content{Messages: []Message{{Type: "text", Text: text}}},
	}
}
