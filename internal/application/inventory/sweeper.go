package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/clinica-estoque-api/pkg/logger"
)

// Sweeper recalcula periódicamente todas las alertas. Cubre los cambios que no vienen de
// una escritura, como un lote que entra en la ventana de vencimiento al cambiar el día.
type Sweeper struct {
	engine   *AlertEngine
	interval time.Duration
	log      *logger.Logger
}

// NewSweeper construye el sweeper. interval <= 0 lo deja deshabilitado.
func NewSweeper(engine *AlertEngine, interval time.Duration, log *logger.Logger) *Sweeper {
	return &Sweeper{engine: engine, interval: interval, log: log.Component("alert_sweeper")}
}

// Run bloquea hasta que ctx se cancele. Hace una pasada al arrancar y luego una por tick.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.log.Info().Msg("sweeper de alertas deshabilitado")
		return
	}
	s.log.Info().Dur("interval", s.interval).Msg("sweeper de alertas iniciado")
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("sweeper de alertas detenido")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce una pasada completa; los errores se registran.
func (s *Sweeper) RunOnce(ctx context.Context) *RecomputeResult {
	start := time.Now()
	res, err := s.engine.RecomputeAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("pasada del sweeper con errores")
	}
	s.log.Debug().Dur("elapsed", time.Since(start)).Msg("pasada del sweeper terminada")
	return res
}
