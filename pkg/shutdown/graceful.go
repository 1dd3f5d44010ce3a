// Package shutdown предоставляет функциональность для корректного завершения приложения
// путем ожидания и обработки сигналов SIGINT и SIGTERM.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"nexusglobal/pkg/logger"
)

// Константы для логирования.
const (
	LogShutdownStarted = "shutdown started"
	LogHookFailed      = "shutdown hook failed"
	LogHooksTimedOut   = "shutdown hooks did not finish in time"
)

// ErrTimeout - хуки не завершились за отведенное время.
var ErrTimeout = errors.New("shutdown timed out")

// Hook освобождает один ресурс.
type Hook func(context.Context) error

// Wait блокирует выполнение до получения SIGINT или SIGTERM либо до отмены ctx,
// затем выполняет все хуки в рамках заданного timeout.
func Wait(ctx context.Context, timeout time.Duration, hooks ...Hook) error {
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-sigCtx.Done()
	logger.Log(ctx).Info(ctx, LogShutdownStarted)

	return Run(ctx, timeout, hooks...)
}

// Run выполняет хуки параллельно и возвращает их ошибки одной ошибкой.
// Отмена ctx не прерывает хуки: их ограничивает только timeout.
func Run(ctx context.Context, timeout time.Duration, hooks ...Hook) error {
	hookCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)
	for i, hook := range hooks {
		wg.Add(1)
		go func(i int, fn Hook) {
			defer wg.Done()
			if err := fn(hookCtx); err != nil {
				logger.Log(ctx).Warn(ctx, LogHookFailed, zap.Int("hook", i), zap.Error(err))
				mu.Lock()
				errs = append(errs, fmt.Errorf("hook %d: %w", i, err))
				mu.Unlock()
			}
		}(i, hook)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-hookCtx.Done():
		logger.Log(ctx).Warn(ctx, LogHooksTimedOut, zap.Duration("timeout", timeout))
		mu.Lock()
		defer mu.Unlock()
		return errors.Join(append(errs, ErrTimeout)...)
	}

	return errors.Join(errs...)
}

// Sequence объединяет хуки в один, который выполняет их по порядку.
// Ошибка хука не останавливает следующие: ресурсы освобождаются в любом случае.
func Sequence(hooks ...Hook) Hook {
	return func(ctx context.Context) error {
		var errs []error
		for _, hook := range hooks {
			if err := hook(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
