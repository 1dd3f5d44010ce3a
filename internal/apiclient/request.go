package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"
)

// Типы содержимого.
const (
	ContentTypeJSON = "application/json"
	headerAuth      = "Authorization"
	headerAccept    = "Accept"
	headerType      = "Content-Type"
	bearerPrefix    = "Bearer "
)

var errRawBodyType = errors.New("raw body must be []byte, string or io.Reader")

// Request описывает один логический вызов API.
type Request struct {
	Method   string
	Endpoint string
	// Params - параметры строки запроса. Значения nil пропускаются.
	Params map[string]any
	// Body сериализуется в JSON, если это не *Multipart и не RawBody.
	Body any
	// RawBody отправляет Body как есть ([]byte, string или io.Reader).
	RawBody bool
	// SkipAuth отключает заголовок Authorization.
	SkipAuth bool
	// Timeout переопределяет таймаут клиента для этого вызова.
	Timeout time.Duration
	Header  http.Header
}

// CallOption настраивает вызов.
type CallOption func(*Request)

// WithParams добавляет параметры строки запроса.
func WithParams(params map[string]any) CallOption {
	return func(r *Request) {
		if r.Params == nil {
			r.Params = make(map[string]any, len(params))
		}
		for k, v := range params {
			r.Params[k] = v
		}
	}
}

// WithBody задает тело запроса.
func WithBody(body any) CallOption {
	return func(r *Request) {
		r.Body = body
	}
}

// WithRawBody отправляет тело без JSON сериализации.
func WithRawBody(body any) CallOption {
	return func(r *Request) {
		r.Body = body
		r.RawBody = true
	}
}

// WithTimeout задает таймаут вызова.
func WithTimeout(d time.Duration) CallOption {
	return func(r *Request) {
		r.Timeout = d
	}
}

// WithSkipAuth отключает авторизацию для вызова.
func WithSkipAuth() CallOption {
	return func(r *Request) {
		r.SkipAuth = true
	}
}

// WithRequestHeader добавляет заголовок к вызову.
func WithRequestHeader(key, value string) CallOption {
	return func(r *Request) {
		if r.Header == nil {
			r.Header = http.Header{}
		}
		r.Header.Set(key, value)
	}
}

// buildURL склеивает базовый адрес, путь и строку запроса.
func buildURL(baseURL, endpoint string, params map[string]any) string {
	full := strings.TrimRight(baseURL, "/")
	if endpoint != "" && !strings.HasPrefix(endpoint, "/") {
		full += "/"
	}
	full += endpoint

	query := encodeParams(params)
	if query == "" {
		return full
	}
	if strings.Contains(full, "?") {
		return full + "&" + query
	}
	return full + "?" + query
}

// encodeParams кодирует параметры в отсортированную строку запроса.
func encodeParams(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}

	values := url.Values{}
	for key, value := range params {
		rv, ok := deref(value)
		if !ok {
			continue
		}
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			if rv.Type().Elem().Kind() == reflect.Uint8 {
				values.Add(key, formatBytes(rv))
				continue
			}
			for i := 0; i < rv.Len(); i++ {
				if item, ok := deref(rv.Index(i).Interface()); ok {
					values.Add(key, formatParam(item))
				}
			}
			continue
		}
		values.Add(key, formatParam(rv))
	}
	return values.Encode()
}

// deref снимает указатели и отбрасывает nil.
func deref(value any) (reflect.Value, bool) {
	if value == nil {
		return reflect.Value{}, false
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	return rv, true
}

func formatParam(rv reflect.Value) string {
	switch v := rv.Interface().(type) {
	case string:
		return v
	case time.Time:
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// formatBytes передает байты как строку, а не как список чисел.
func formatBytes(rv reflect.Value) string {
	if s, ok := rv.Interface().(fmt.Stringer); ok {
		return s.String()
	}
	b := make([]byte, rv.Len())
	reflect.Copy(reflect.ValueOf(b), rv)
	return string(b)
}

// encodeBody готовит тело запроса и его Content-Type.
// Пустой contentType означает, что заголовок выставлять не нужно.
func encodeBody(r Request) (io.Reader, string, error) {
	if m, ok := r.Body.(*Multipart); ok {
		if m == nil {
			return nil, ContentTypeJSON, nil
		}
		return m.Reader(), m.ContentType(), nil
	}

	if r.Body == nil {
		return nil, ContentTypeJSON, nil
	}

	if r.RawBody {
		switch body := r.Body.(type) {
		case []byte:
			return bytes.NewReader(body), ContentTypeJSON, nil
		case json.RawMessage:
			return bytes.NewReader(body), ContentTypeJSON, nil
		case string:
			return strings.NewReader(body), ContentTypeJSON, nil
		case io.Reader:
			return body, ContentTypeJSON, nil
		default:
			return nil, "", errRawBodyType
		}
	}

	payload, err := json.Marshal(r.Body)
	if err != nil {
		return nil, "", fmt.Errorf("encoding request body: %w", err)
	}
	return bytes.NewReader(payload), ContentTypeJSON, nil
}
