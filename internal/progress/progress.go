package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/slok/inferctl/internal/printer"
)

const barWidth = 30

// Reader wraps an io.Reader reporting the transferred bytes on a status writer.
// Used for uploads, the HTTP client pulls from it while streaming the body.
type Reader struct {
	src          io.Reader
	statusWriter io.Writer
	label        string
	total        int64
	read         int64
	mu           sync.Mutex
}

// NewReader creates a new progress reader.
// If total is 0 or negative, only transferred bytes are shown (no percentage).
func NewReader(src io.Reader, statusWriter io.Writer, label string, total int64) *Reader {
	return &Reader{
		src:          src,
		statusWriter: statusWriter,
		label:        label,
		total:        total,
	}
}

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	if n > 0 {
		r.mu.Lock()
		r.read += int64(n)
		r.print()
		r.mu.Unlock()
	}

	return n, err
}

// Transferred returns the bytes read so far.
func (r *Reader) Transferred() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read
}

// Finish ends the progress line.
func (r *Reader) Finish() {
	fmt.Fprintln(r.statusWriter)
}

func (r *Reader) print() {
	if r.total <= 0 {
		fmt.Fprintf(r.statusWriter, "\r  %s: %s sent", r.label, printer.FormatBytes(r.read))
		return
	}

	pct := float64(r.read) / float64(r.total) * 100
	filled := min(int(pct/100*barWidth), barWidth)
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", barWidth-filled)
	fmt.Fprintf(r.statusWriter, "\r  %s [%s] %3.0f%% %s / %s", r.label, bar, pct, printer.FormatBytes(r.read), printer.FormatBytes(r.total))
}
