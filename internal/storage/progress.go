package storage

import (
	"io"
)

// ProgressReader wraps an upload body and reports transfer progress as a
// percentage of the expected size while the object store consumes it.
// Reported values only ever increase.
type ProgressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	report func(pct int)
}

// NewProgressReader returns a reader reporting progress through report.
func NewProgressReader(r io.Reader, total int64, report func(pct int)) *ProgressReader {
	return &ProgressReader{r: r, total: total, report: report}
}

func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.total > 0 && p.report != nil {
		p.read += int64(n)
		pct := int(p.read * 100 / p.total)
		if pct > 100 {
			pct = 100
		}
		if pct > p.last {
			p.last = pct
			p.report(pct)
		}
	}
	return n, err
}
