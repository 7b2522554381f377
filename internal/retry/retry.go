// Package retry выполняет операцию с ограниченным числом попыток и растущей паузой.
//
// Обёртка не различает причины ошибок: вызывающий код сам решает,
// какие операции безопасно повторять вслепую.
package retry

import (
	"context"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 500 * time.Millisecond
)

// Policy описывает параметры повторов.
type Policy struct {
	// MaxAttempts - общее число вызовов операции; значения <= 0 означают одну попытку.
	MaxAttempts int
	// BaseDelay - пауза перед второй попыткой; дальше она удваивается.
	BaseDelay time.Duration
	// Sleep подменяется в тестах. По умолчанию ждёт с учётом ctx.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry вызывается перед каждой паузой.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Default возвращает политику по умолчанию: 3 попытки с паузами 500ms и 1s.
func Default() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, BaseDelay: DefaultBaseDelay}
}

// Delay возвращает паузу после неудачной попытки attempt (нумерация с 1).
// Пауза строго растёт с номером попытки.
func (p Policy) Delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Millisecond
	}
	if attempt < 1 {
		attempt = 1
	}
	return base << (attempt - 1)
}

func (p Policy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

// Do выполняет op до успеха или исчерпания попыток.
// При исчерпании возвращается последняя ошибка без обёртки.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	_, err := Value(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Value - вариант Do для операций, возвращающих значение.
func Value[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var zero T
	var lastErr error
	maxAttempts := p.attempts()
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}

		delay := p.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
