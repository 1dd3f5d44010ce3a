package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"
)

// Поля, из которых берется сообщение ответа, не обернутого в конверт.
var plainMessageFields = []string{"message", "user_message", "error"}

// normalize превращает сырой HTTP ответ в конверт или в *Error.
func normalize(status int, header http.Header, body []byte) (*Envelope, error) {
	trimmed := bytes.TrimSpace(body)

	var env *Envelope
	if isJSON(header.Get(headerType)) && len(trimmed) > 0 {
		parsed, err := parseJSON(status, trimmed)
		if err != nil {
			if !isSuccessStatus(status) {
				return nil, statusError(status, nil, textMessage(status, trimmed))
			}
			return nil, &Error{Kind: KindHTTP, Status: status, Message: Messages{"malformed response body"}, Err: err}
		}
		env = parsed
	} else {
		env = textEnvelope(status, trimmed)
	}
	env.Status = status

	if status == http.StatusUnauthorized || !isSuccessStatus(status) || !env.Success {
		return nil, statusError(status, env.Errors, env.Message)
	}
	return env, nil
}

// statusError строит ошибку по статусу. 401 всегда AuthError, независимо от конверта.
func statusError(status int, errs, msg Messages) *Error {
	kind := KindHTTP
	if status == http.StatusUnauthorized {
		kind = KindAuth
	}
	if len(msg) == 0 {
		msg = Messages{http.StatusText(status)}
	}
	return &Error{Kind: kind, Status: status, Message: msg, Errors: errs}
}

// parseJSON разбирает конверт. JSON без поля success считается данными,
// а успех определяется по статусу.
func parseJSON(status int, body []byte) (*Envelope, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		var anything any
		if err := json.Unmarshal(body, &anything); err != nil {
			return nil, fmt.Errorf("decoding response: %w", err)
		}
		return &Envelope{Success: isSuccessStatus(status), Data: json.RawMessage(body)}, nil
	}

	if _, ok := probe["success"]; ok {
		var env Envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("decoding envelope: %w", err)
		}
		return &env, nil
	}

	env := &Envelope{Success: isSuccessStatus(status), Data: json.RawMessage(body)}
	if !env.Success {
		env.Data = nil
		for _, field := range plainMessageFields {
			var msg Messages
			if raw, ok := probe[field]; ok && json.Unmarshal(raw, &msg) == nil && len(msg) > 0 {
				env.Message = msg
				break
			}
		}
	}
	return env, nil
}

func textEnvelope(status int, body []byte) *Envelope {
	env := &Envelope{Success: isSuccessStatus(status)}
	if len(body) == 0 {
		return env
	}
	if env.Success {
		data, err := json.Marshal(string(body))
		if err == nil {
			env.Data = data
		}
		return env
	}
	env.Message = textMessage(status, body)
	return env
}

func textMessage(status int, body []byte) Messages {
	if len(body) == 0 {
		return Messages{http.StatusText(status)}
	}
	return Messages{string(body)}
}

func isSuccessStatus(status int) bool {
	return status >= 200 && status < 300
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == ContentTypeJSON || strings.HasSuffix(mediaType, "+json")
}
