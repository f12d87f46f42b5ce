package transfer

import "time"

// Direction tells a progress observer which way a file is moving.
type Direction int

const (
	Sending Direction = iota
	Receiving
)

func (d Direction) String() string {
	if d == Receiving {
		return "receiving"
	}
	return "sending"
}

// Progress is a snapshot of one file transfer. Done is set on the last
// snapshot, which is delivered whether or not Transferred reached Total.
type Progress struct {
	Name        string
	Direction   Direction
	Transferred int64
	Total       int64
	Done        bool
}

// ProgressFunc observes file transfers.
type ProgressFunc func(Progress)

// meter reports on a single transfer. A nil meter is a no-op.
type meter struct {
	fn       ProgressFunc
	interval time.Duration
	last     time.Time
	p        Progress
}

func (e *Engine) newMeter(name string, dir Direction, total int64) *meter {
	if e.onProgress == nil {
		return nil
	}
	return &meter{
		fn:       e.onProgress,
		interval: e.progressEvery,
		last:     time.Now(),
		p:        Progress{Name: name, Direction: dir, Total: total},
	}
}

func (m *meter) add(n int64) {
	if m == nil {
		return
	}
	m.p.Transferred += n
	if now := time.Now(); now.Sub(m.last) >= m.interval {
		m.last = now
		m.fn(m.p)
	}
}

func (m *meter) finish() {
	if m == nil {
		return
	}
	m.p.Done = true
	m.fn(m.p)
}
