package conversation

import (
	"encoding/json"
	"fmt"

	"github.com/tbourn/wp-category-assistant/internal/domain"
)

// Encode serializes a log as a JSON array of {id, text, sender, timestamp}.
func Encode(msgs []domain.Message) ([]byte, error) {
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return json.Marshal(msgs)
}

// Decode restores a log produced by Encode, rejecting unknown senders.
func Decode(raw []byte) ([]domain.Message, error) {
	var msgs []domain.Message
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, err
	}
	for i, m := range msgs {
		if !m.Sender.Valid() {
			return nil, fmt.Errorf("conversation: message %d: unknown sender %q", i, m.Sender)
		}
	}
	return msgs, nil
}
