package monitor

import (
	"time"

	"go.uber.org/zap"

	"chunkseq/parallel"
)

// Zap logs chunk events. Per-chunk events go out at debug level so a
// production logger only sees failures and the final outcome.
type Zap struct {
	logger *zap.Logger
}

var _ parallel.Monitor = (*Zap)(nil)

// NewZap wraps logger. A nil logger discards everything.
func NewZap(logger *zap.Logger) *Zap {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Zap{logger: logger.With(zap.String("component", "chunkseq"))}
}

func (z *Zap) OnExtract(size int, elapsed time.Duration) {
	z.logger.Debug("chunk extracted",
		zap.Int("size", size),
		zap.Duration("elapsed", elapsed),
	)
}

func (z *Zap) OnProcess(size int, elapsed time.Duration, err error) {
	if err != nil {
		z.logger.Warn("chunk failed",
			zap.Int("size", size),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return
	}
	z.logger.Debug("chunk processed",
		zap.Int("size", size),
		zap.Duration("elapsed", elapsed),
	)
}

func (z *Zap) OnDrop(chunks int) {
	z.logger.Warn("chunks dropped", zap.Int("chunks", chunks))
}

func (z *Zap) OnFinish(err error) {
	if err != nil {
		z.logger.Error("traversal failed", zap.Error(err))
		return
	}
	z.logger.Info("traversal finished")
}
