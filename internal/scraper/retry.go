package scraper

import (
	"context"
	"errors"
	"fmt"

	"lanews-extractor/internal/browser"
	"lanews-extractor/internal/observability"
)

const DefaultMaxRetries = 2

// Retrier повторяет шаг после перезагрузки страницы, если ошибка временная
// (устаревший элемент, таймаут). Остальные ошибки возвращаются сразу.
type Retrier struct {
	maxRetries int
	reload     func(ctx context.Context) error
	logger     *observability.Logger
}

func NewRetrier(maxRetries int, reload func(ctx context.Context) error, logger *observability.Logger) *Retrier {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Retrier{
		maxRetries: maxRetries,
		reload:     reload,
		logger:     logger,
	}
}

// Do вызывает op не более maxRetries+1 раз
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempt := 0
	for {
		err := op(ctx)
		if err == nil || !browser.IsTransient(err) {
			return err
		}

		attempt++
		if attempt > r.maxRetries {
			return err
		}

		r.logger.Warn("Attempt failed, reloading page",
			"attempt", attempt,
			"max_retries", r.maxRetries,
			"error", err.Error(),
		)

		if r.reload == nil {
			continue
		}
		if reloadErr := r.reload(ctx); reloadErr != nil {
			return errors.Join(err, fmt.Errorf("reload failed: %w", reloadErr))
		}
	}
}
