package recorder

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
)

// ScanRun is one batch classification of the watchlist.
type ScanRun struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []model.TrafficLightResult
}

// Count returns how many results carry status s.
func (r *ScanRun) Count(s model.Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Recorder persists classification history for analysis.
type Recorder interface {
	RecordScan(run *ScanRun) error
	// History returns up to limit results for ticker, newest first.
	History(ticker string, limit int) ([]model.TrafficLightResult, error)
	Close() error
}

var (
	idMu sync.Mutex
	mono io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// NewRunID returns a time-sortable scan identifier.
func NewRunID(at time.Time) string {
	idMu.Lock()
	defer idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at.UTC()), mono).String()
}
