package json

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fwojciec/chatstream"
)

// messageDTO is the JSON representation of a Message.
type messageDTO struct {
	ID          string    `json:"id"`
	Role        string    `json:"role"`
	Text        string    `json:"text"`
	IsError     bool      `json:"is_error,omitempty"`
	SearchQuery string    `json:"search_query,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func marshalMessage(msg chatstream.Message) (messageDTO, error) {
	switch msg.Role {
	case chatstream.RoleUser, chatstream.RoleAssistant:
	default:
		return messageDTO{}, fmt.Errorf("unknown message role: %q", msg.Role)
	}
	return messageDTO{
		ID:          msg.ID,
		Role:        string(msg.Role),
		Text:        msg.Text,
		IsError:     msg.IsError,
		SearchQuery: msg.SearchQuery,
		CreatedAt:   msg.CreatedAt,
	}, nil
}

func unmarshalMessage(dto messageDTO) (chatstream.Message, error) {
	role := chatstream.Role(dto.Role)
	switch role {
	case chatstream.RoleUser, chatstream.RoleAssistant:
	default:
		return chatstream.Message{}, fmt.Errorf("unknown message role: %q", dto.Role)
	}
	return chatstream.Message{
		ID:          dto.ID,
		Role:        role,
		Text:        dto.Text,
		IsError:     dto.IsError,
		SearchQuery: dto.SearchQuery,
		CreatedAt:   dto.CreatedAt,
	}, nil
}

// EncodeMessage serializes a single message in the session file format.
func EncodeMessage(msg chatstream.Message) ([]byte, error) {
	dto, err := marshalMessage(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(dto)
}

// DecodeMessage is the inverse of EncodeMessage.
func DecodeMessage(data []byte) (chatstream.Message, error) {
	var dto messageDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return chatstream.Message{}, fmt.Errorf("unmarshal message: %w", err)
	}
	return unmarshalMessage(dto)
}
