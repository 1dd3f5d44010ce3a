package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var errUnsupportedMessages = errors.New("message must be a string, an array of strings or null")

// Messages принимает из JSON строку, массив строк или null.
type Messages []string

// UnmarshalJSON реализует json.Unmarshaler.
func (m *Messages) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*m = nil
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("decoding message string: %w", err)
		}
		*m = Messages{s}
		return nil
	case '[':
		var list []string
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return fmt.Errorf("decoding message list: %w", err)
		}
		*m = list
		return nil
	default:
		return errUnsupportedMessages
	}
}

// MarshalJSON пишет одно сообщение строкой, несколько - массивом, ни одного - null.
func (m Messages) MarshalJSON() ([]byte, error) {
	switch len(m) {
	case 0:
		return []byte("null"), nil
	case 1:
		return json.Marshal(m[0])
	default:
		return json.Marshal([]string(m))
	}
}

// Slice возвращает сообщения обычным срезом; пустой список - nil.
func (m Messages) Slice() []string {
	if len(m) == 0 {
		return nil
	}
	return []string(m)
}

func (m Messages) String() string {
	return strings.Join(m, "; ")
}

// Envelope - единый формат ответа бэкенда.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message Messages        `json:"message"`
	Errors  Messages        `json:"errors"`

	// Status - HTTP статус ответа, в JSON не участвует.
	Status int `json:"-"`
}

// HasData сообщает, содержит ли конверт непустые данные.
func (e *Envelope) HasData() bool {
	trimmed := bytes.TrimSpace(e.Data)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Decode разбирает data в out. При data == null out не изменяется.
func (e *Envelope) Decode(out any) error {
	if out == nil || !e.HasData() {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], e.Data...)
		return nil
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("decoding envelope data: %w", err)
	}
	return nil
}
