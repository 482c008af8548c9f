// Package wsclient carries the typed message envelope used on the wire and
// thin read/write helpers over a gorilla connection.
package wsclient

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
)

type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func Read(conn *websocket.Conn) (Message, error) {
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		return Message{}, err
	}
	if msg.Type == "" {
		return Message{}, fmt.Errorf("message without type")
	}

	return msg, nil
}

func Write(conn *websocket.Conn, messageType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	return conn.WriteJSON(Message{Type: messageType, Payload: raw})
}
