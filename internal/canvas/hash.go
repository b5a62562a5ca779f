package canvas

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/peterstace/simplefeatures/geom"
)

// contentHasher feeds fixed-width encodings of item fields into xxhash so
// that two items hash equal exactly when their fields are equal.
type contentHasher struct {
	d   *xxhash.Digest
	buf [8]byte
}

func newContentHasher() *contentHasher {
	return &contentHasher{d: xxhash.New()}
}

func (h *contentHasher) float(v float64) {
	binary.LittleEndian.PutUint64(h.buf[:], math.Float64bits(v))
	_, _ = h.d.Write(h.buf[:])
}

func (h *contentHasher) uint(v uint64) {
	binary.LittleEndian.PutUint64(h.buf[:], v)
	_, _ = h.d.Write(h.buf[:])
}

func (h *contentHasher) bool(v bool) {
	if v {
		h.uint(1)
		return
	}
	h.uint(0)
}

func (h *contentHasher) str(s string) {
	h.uint(uint64(len(s)))
	_, _ = h.d.WriteString(s)
}

func (h *contentHasher) xy(p geom.XY) {
	h.float(p.X)
	h.float(p.Y)
}

func (h *contentHasher) colour(c Colour) {
	h.float(c.R)
	h.float(c.G)
	h.float(c.B)
}

func (h *contentHasher) sum() uint64 {
	return h.d.Sum64()
}
