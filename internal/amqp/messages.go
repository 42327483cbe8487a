package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// CollectionChangedMessage announces that a collection snapshot was
// rewritten. It carries no records; consumers read the snapshot themselves.
type CollectionChangedMessage struct {
	Key       string    `json:"key"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

func NewCollectionChangedMessage(key string, count int) *CollectionChangedMessage {
	return &CollectionChangedMessage{
		Key:       key,
		Count:     count,
		Timestamp: time.Now(),
	}
}

func (m *CollectionChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func CollectionChangedMessageFromJSON(data []byte) (*CollectionChangedMessage, error) {
	var msg CollectionChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Key == "" {
		return nil, errors.New("message has no key")
	}
	return &msg, nil
}
