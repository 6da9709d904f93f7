package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// ratioSampler passes n of every d events. A zero ratio passes everything.
type ratioSampler struct {
	ratio atomic.Uint64 // n<<32 | d
	seq   atomic.Uint64
}

func newRatioSampler(n, d int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(n, d)
	return s
}

// Set replaces the ratio and restarts the sequence.
func (s *ratioSampler) Set(n, d int) {
	var packed uint64
	if n > 0 && d > 0 {
		packed = uint64(uint32(min(n, d)))<<32 | uint64(uint32(d))
	}
	s.ratio.Store(packed)
	s.seq.Store(0)
}

func (s *ratioSampler) Allow() bool {
	packed := s.ratio.Load()
	d := packed & 0xffffffff
	if d == 0 {
		return true
	}
	pos := (s.seq.Add(1) - 1) % d
	return pos < packed>>32
}

// parseRatioSpec reads "n/d" or a bare "d" meaning 1/d. Invalid input yields 0, 0.
func parseRatioSpec(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	num, den, hasSlash := strings.Cut(spec, "/")
	if !hasSlash {
		num, den = "1", spec
	}
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil {
		return 0, 0
	}
	d, err := strconv.Atoi(strings.TrimSpace(den))
	if err != nil || (!hasSlash && d <= 0) {
		return 0, 0
	}
	return n, d
}
