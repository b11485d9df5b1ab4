package benchmark

import (
	"io"

	"github.com/valyala/bytebufferpool"
)

// drain reads r to the end through a pooled buffer and reports how many bytes it held.
func drain(r io.Reader) (int64, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	return buf.ReadFrom(r)
}
