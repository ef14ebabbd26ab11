package launcher

import (
	"bytes"
	"strings"
	"sync"

	"github.com/armon/circbuf"
)

// tailSize is the number of trailing output bytes kept per process.
const tailSize = 64 * 1024

// tail keeps the end of a process output.
type tail struct {
	mtx sync.Mutex
	buf *circbuf.Buffer
}

func newTail() *tail {
	buf, _ := circbuf.NewBuffer(tailSize)
	return &tail{buf: buf}
}

func (t *tail) Write(p []byte) (int, error) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.buf.Write(p)
}

// Lines returns up to the last n complete or partial lines.
func (t *tail) Lines(n int) []string {
	t.mtx.Lock()
	b := append([]byte(nil), t.buf.Bytes()...)
	wrapped := t.buf.TotalWritten() > t.buf.Size()
	t.mtx.Unlock()

	b = bytes.TrimRight(b, "\n")
	if len(b) == 0 || n <= 0 {
		return nil
	}
	lines := strings.Split(string(b), "\n")
	if wrapped && len(lines) > 1 {
		// first line was cut by the ring buffer
		lines = lines[1:]
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}
