// Package progress contains model.ProgressFunc sinks.
package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/ipatlas/ipatlas/internal/model"
	"github.com/schollz/progressbar/v3"
)

// NewBar returns a sink drawing a progress bar of total items on w.
func NewBar(w io.Writer, total int, description string) model.ProgressFunc {
	bar := progressbar.NewOptions64(
		int64(total),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetWriter(w),
	)
	return func(count int) {
		bar.Set(count)
	}
}

// NewLogged returns a sink logging the percentage of total items
// written. It logs at most once per step percent.
func NewLogged(logger model.Logger, total int, description string, step int) model.ProgressFunc {
	logger = model.ValidLoggerOrDefault(logger)
	if step <= 0 {
		step = 10
	}
	var next int
	return func(count int) {
		if total <= 0 {
			return
		}
		percentage := count * 100 / total
		if percentage < next && count < total {
			return
		}
		logger.Infof("%s: %d/%d (%d%%)", description, count, total, percentage)
		next = (percentage/step + 1) * step
	}
}

// Tee returns a sink forwarding every count to all sinks.
func Tee(sinks ...model.ProgressFunc) model.ProgressFunc {
	return func(count int) {
		for _, fx := range sinks {
			fx.Report(count)
		}
	}
}
