package resilience

import (
	"context"

	"go.uber.org/zap"

	"nexusglobal/pkg/logger"
)

// LogExecuting - сообщение о вызове через обертку.
const LogExecuting = "executing backend call with resilience"

// ServiceResilience объединяет Circuit Breaker и Retry для одного бэкенда.
type ServiceResilience struct {
	serviceName    string
	circuitBreaker *CircuitBreaker
	retry          *Retry
}

// NewServiceResilience создает обертку с настройками по умолчанию.
func NewServiceResilience(serviceName string) *ServiceResilience {
	return NewServiceResilienceWithConfig(serviceName, DefaultCircuitBreakerConfig(), DefaultRetryConfig())
}

// NewServiceResilienceWithConfig создает обертку с заданными настройками.
func NewServiceResilienceWithConfig(serviceName string, cb CircuitBreakerConfig, retry RetryConfig) *ServiceResilience {
	return &ServiceResilience{
		serviceName:    serviceName,
		circuitBreaker: NewCircuitBreaker(serviceName, cb),
		retry:          NewRetry(serviceName, retry),
	}
}

// State возвращает состояние Circuit Breaker бэкенда.
func (r *ServiceResilience) State() CircuitState {
	return r.circuitBreaker.GetState()
}

// Read выполняет идемпотентное чтение: Circuit Breaker и повторы.
func Read[T any](ctx context.Context, r *ServiceResilience, operation string, fn func(context.Context) (T, error)) (T, error) {
	r.log(ctx, operation)

	var result T
	err := r.circuitBreaker.Execute(ctx, func() error {
		return r.retry.Execute(ctx, func() error {
			var err error
			result, err = fn(ctx)
			return err
		})
	})
	return result, err
}

// Write выполняет запись только через Circuit Breaker: запись не повторяется.
func Write[T any](ctx context.Context, r *ServiceResilience, operation string, fn func(context.Context) (T, error)) (T, error) {
	r.log(ctx, operation)

	var result T
	err := r.circuitBreaker.Execute(ctx, func() error {
		var err error
		result, err = fn(ctx)
		return err
	})
	return result, err
}

func (r *ServiceResilience) log(ctx context.Context, operation string) {
	logger.Log(ctx).Debug(ctx, LogExecuting,
		zap.String("service", r.serviceName),
		zap.String("operation", operation))
}
