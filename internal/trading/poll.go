package trading

import (
	"context"
	"time"
)

// pollUntil крутит fn раз в interval, максимум attempts раз, пока fn не вернёт
// true. Ограничен и числом попыток, и ctx: шатдаун сверху прерывает ожидание
// сразу, а не через 5 секунд.
func pollUntil(ctx context.Context, interval time.Duration, attempts int, fn func() (bool, error)) error {
	t := time.NewTicker(interval)
	defer t.Stop()

	for i := 0; i < attempts; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
		done, err := fn()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return nil // попытки кончились — не ошибка, решает вызывающий
}
