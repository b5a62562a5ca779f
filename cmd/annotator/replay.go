package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/framereview/annotations/internal/dispatcher"
	"github.com/framereview/annotations/internal/parser"
)

// maxLineSize bounds one NDJSON event. PaintPoint batches can be large.
const maxLineSize = 4 << 20

type replayStats struct {
	Lines      int
	Dispatched int
	Dropped    int
}

// replay reads NDJSON events from r and hands each to d. Malformed lines
// and rejected events are logged and skipped; only read errors stop it.
func replay(ctx context.Context, r io.Reader, d *dispatcher.Dispatcher, logger *slog.Logger) (replayStats, error) {
	var stats replayStats

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Lines++

		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		e, err := parser.ParseEvent(line)
		if err != nil {
			stats.Dropped++
			logger.Warn("Dropped malformed line", "line", stats.Lines, "error", err)
			continue
		}
		if err := d.Dispatch(e); err != nil {
			stats.Dropped++
			logger.Warn("Event dropped", "line", stats.Lines, "event", e.Name, "user", e.UserID, "error", err)
			continue
		}
		stats.Dispatched++
	}
	if err := sc.Err(); err != nil {
		return stats, fmt.Errorf("reading events: %w", err)
	}
	return stats, nil
}
