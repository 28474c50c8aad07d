package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/clinica-estoque-api/internal/domain"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/inventory"
	"github.com/jhoicas/clinica-estoque-api/pkg/logger"
)

// Settings parámetros compartidos por los casos de uso de stock.
type Settings struct {
	Evaluator   inventory.Evaluator
	MaxAttempts int   // intentos ante conflicto de concurrencia (>= 1)
	Clock       Clock // nil = time.Now
}

// DefaultSettings umbrales por defecto, UTC y 3 intentos.
func DefaultSettings() Settings {
	return Settings{
		Evaluator:   inventory.NewEvaluator(inventory.DefaultThresholds(), time.UTC),
		MaxAttempts: 3,
		Clock:       time.Now,
	}
}

func (s Settings) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock()
}

func (s Settings) attempts() int {
	if s.MaxAttempts < 1 {
		return 1
	}
	return s.MaxAttempts
}

// day clave de día calendario en la zona de la clínica.
func (s Settings) day(now time.Time) string {
	return s.Evaluator.StartOfDay(now).Format("2006-01-02")
}

// withRetry repite fn mientras falle con alguno de los errores retryOn
// (por defecto domain.ErrConcurrencyConflict). Cada intento es una transacción nueva.
func withRetry(ctx context.Context, attempts int, log *logger.Logger, op string, fn func() error, retryOn ...error) error {
	if len(retryOn) == 0 {
		retryOn = []error{domain.ErrConcurrencyConflict}
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil || !isAny(err, retryOn) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if attempt < attempts {
			log.Warn().Err(err).Str("op", op).Int("attempt", attempt).Int("max_attempts", attempts).
				Msg("conflicto al escribir stock, reintentando")
		}
	}
	log.Warn().Err(err).Str("op", op).Int("max_attempts", attempts).Msg("reintentos agotados")
	return err
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
