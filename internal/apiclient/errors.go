package apiclient

import (
	"errors"
	"fmt"
	"strings"
)

// Kind классифицирует ошибку вызова API.
type Kind int

// Виды ошибок клиента.
const (
	KindConfiguration Kind = iota + 1
	KindTimeout
	KindNetwork
	KindHTTP
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "ConfigurationError"
	case KindTimeout:
		return "Timeout"
	case KindNetwork:
		return "NetworkError"
	case KindHTTP:
		return "HttpError"
	case KindAuth:
		return "AuthError"
	default:
		return "UnknownError"
	}
}

// Сигнальные ошибки по видам, сопоставляются через errors.Is.
var (
	ErrConfiguration = errors.New("api client configuration error")
	ErrTimeout       = errors.New("request timed out")
	ErrNetwork       = errors.New("network error")
	ErrHTTP          = errors.New("http error")
	ErrAuth          = errors.New("authentication error")
)

func (k Kind) sentinel() error {
	switch k {
	case KindConfiguration:
		return ErrConfiguration
	case KindTimeout:
		return ErrTimeout
	case KindNetwork:
		return ErrNetwork
	case KindHTTP:
		return ErrHTTP
	case KindAuth:
		return ErrAuth
	default:
		return nil
	}
}

// Error - единственный тип ошибки, который возвращают вызовы клиента.
type Error struct {
	Kind     Kind
	Method   string
	Endpoint string
	// Status - HTTP статус ответа, 0 если ответа не было.
	Status  int
	Message Messages
	Errors  Messages
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Method != "" || e.Endpoint != "" {
		fmt.Fprintf(&b, " %s %s", e.Method, e.Endpoint)
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, " (%d)", e.Status)
	}
	if msg := e.Message.String(); msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap отдает сигнальную ошибку вида и исходную причину.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// AsError извлекает *Error из цепочки.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsKind сообщает, является ли err ошибкой клиента указанного вида.
func IsKind(err error, kind Kind) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == kind
}

// IsRetryable сообщает, имеет ли смысл вызывающему повторить запрос.
func IsRetryable(err error) bool {
	return IsKind(err, KindTimeout) || IsKind(err, KindNetwork)
}

// StatusOf возвращает HTTP статус из ошибки клиента или 0.
func StatusOf(err error) int {
	if apiErr, ok := AsError(err); ok {
		return apiErr.Status
	}
	return 0
}
