// Package store определяет хранилище сессий шлюза.
package store

import "nexusglobal/internal/session"

// SessionStore - хранилище сессий с освобождаемыми ресурсами.
type SessionStore interface {
	session.Store

	Close() error
}
