package feed

import (
	"context"
	"time"

	"github.com/tphakala/audiofeed/internal/errors"
)

// DefaultMaxNoDataReads is how many consecutive reads may move zero bytes
// before a Pump declares the feed stalled. Each such read already waited out
// the engine's own timeouts, so the default covers roughly a second of
// silence.
const DefaultMaxNoDataReads = 50

// PumpConfig controls a Pump. The zero value is usable.
type PumpConfig struct {
	// MaxNoDataReads aborts the run after this many consecutive reads
	// that delivered nothing. Zero selects the default; negative disables
	// the stall check.
	MaxNoDataReads int
}

// Pump drives a Reader to completion. It owns the poll loop so callers only
// deal with the final outcome; per-step pacing and backpressure stay inside
// the Reader.
type Pump struct {
	reader *Reader
	cfg    PumpConfig
}

// NewPump wraps an armed Reader. The Reader must not be polled by anyone
// else while a Run is in flight.
func NewPump(reader *Reader, cfg PumpConfig) *Pump {
	if cfg.MaxNoDataReads == 0 {
		cfg.MaxNoDataReads = DefaultMaxNoDataReads
	}
	return &Pump{reader: reader, cfg: cfg}
}

// Run polls the Reader until the session finishes, fails, stalls, or ctx is
// cancelled. It returns nil only when the source was fully consumed.
func (p *Pump) Run(ctx context.Context) error {
	began := time.Now()
	noData := 0
	last := p.reader.BytesDelivered()

	if p.reader.cfg.Debug {
		log.Debug("pump run starting",
			"source", p.reader.sourceLabel(),
			"format", p.reader.Format().String())
	}

	for {
		select {
		case <-ctx.Done():
			p.recordRun("cancelled", began)
			return ctx.Err()
		default:
		}

		src := p.reader.sourceLabel()
		state := p.reader.Read()

		switch state {
		case StateFinished:
			p.recordRun("finished", began)
			log.Info("feed complete",
				"source", src,
				"bytes", p.reader.BytesDelivered(),
				"duration_ms", time.Since(began).Milliseconds())
			return nil
		case StateFailed:
			p.recordRun("failed", began)
			return errors.Newf("feed read failed").
				Component("feed").
				Category(errors.CategoryTransport).
				Context("operation", "pump_run").
				Context("source", src).
				Context("bytes_delivered", p.reader.BytesDelivered()).
				Build()
		}

		delivered := p.reader.BytesDelivered()
		if delivered == last {
			noData++
			if m := getMetrics(); m != nil {
				m.RecordPumpNoProgress(src)
			}
			if p.cfg.MaxNoDataReads > 0 && noData >= p.cfg.MaxNoDataReads {
				log.Error("feed stalled, aborting",
					"source", src,
					"consecutive_no_data", noData,
					"bytes_delivered", delivered)
				captureSystemInfo("feed pump stalled")
				p.recordRun("stalled", began)
				return errors.Newf("no data moved after %d consecutive reads", noData).
					Component("feed").
					Category(errors.CategoryTimeout).
					Context("operation", "pump_run").
					Context("source", src).
					Context("bytes_delivered", delivered).
					Build()
			}
			continue
		}

		if m := getMetrics(); m != nil {
			m.RecordPumpBytesMoved(src, delivered-last)
		}
		noData = 0
		last = delivered
	}
}

func (p *Pump) recordRun(result string, began time.Time) {
	if m := getMetrics(); m != nil {
		m.RecordPumpRun(result, time.Since(began).Seconds())
	}
}
