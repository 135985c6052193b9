package ledger

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// idSource mints entry ids of the form <epoch-ms>-<8 hex>. The millisecond
// part is strictly increasing within one process.
type idSource struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func newIDSource(now func() time.Time) *idSource {
	return &idSource{now: now}
}

// next returns a fresh id and the millisecond timestamp encoded in it.
func (s *idSource) next() (string, int64) {
	s.mu.Lock()
	ms := s.now().UnixMilli()
	if ms <= s.last {
		ms = s.last + 1
	}
	s.last = ms
	s.mu.Unlock()

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return strconv.FormatInt(ms, 10) + "-" + suffix, ms
}
