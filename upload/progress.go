package upload

import "io"

// ProgressFunc receives monotonically non-decreasing percentages from 0 to
// 100 while a job's transfer is active.
type ProgressFunc func(percent int)

// progressReader wraps the request body and reports cumulative read progress
// as the transport consumes it. Reported values never decrease, even if the
// underlying reader is rewound by the transport.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	report ProgressFunc
}

func newProgressReader(r io.Reader, total int64, report ProgressFunc) *progressReader {
	p := &progressReader{r: r, total: total, report: report}
	p.emit(0)
	return p
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		p.emit(p.percent())
	}
	if err == io.EOF {
		p.emit(100)
	}
	return n, err
}

func (p *progressReader) percent() int {
	if p.total <= 0 {
		return 100
	}
	pct := int(p.read * 100 / p.total)
	if pct > 100 {
		pct = 100
	}
	return pct
}

func (p *progressReader) emit(pct int) {
	if p.report == nil {
		return
	}
	if pct < p.last {
		return
	}
	p.last = pct
	p.report(pct)
}
