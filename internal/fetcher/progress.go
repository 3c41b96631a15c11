package fetcher

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
)

const barWidth = 40

// progressBar redraws a single terminal line: [=====>-----]  45.2% (12 MiB)
// It stays silent when the total size is unknown.
type progressBar struct {
	w     io.Writer
	total int64
	drawn bool
}

func newProgressBar(w io.Writer, total int64) *progressBar {
	return &progressBar{w: w, total: total}
}

func (p *progressBar) Update(done int64) {
	if p.w == nil || p.total <= 0 {
		return
	}

	percent := float64(done) / float64(p.total) * 100
	if percent > 100 {
		percent = 100
	}

	completed := int(percent / 100 * barWidth)
	bar := strings.Repeat("=", completed)
	if completed < barWidth {
		bar += ">" + strings.Repeat("-", barWidth-completed-1)
	}

	fmt.Fprintf(p.w, "\r[%s] %5.1f%% (%s)", bar, percent, humanize.IBytes(uint64(done)))
	p.drawn = true
}

// Finish terminates the line so following log output starts clean.
func (p *progressBar) Finish() {
	if p.drawn {
		fmt.Fprintln(p.w)
	}
}
