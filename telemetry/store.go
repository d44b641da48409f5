package telemetry

import (
	"sort"
	"sync"
	"time"

	"github.com/Auyante/refineryiq-system/models"
)

// Point is one retained sample of a tag series.
type Point struct {
	Timestamp time.Time
	Value     float64
	Quality   models.Quality
}

type seriesKey struct {
	unit string
	tag  string
}

type series struct {
	points []Point
}

// Store holds the most recent retention window of readings per
// (unit, tag) pair. Ingest never blocks on window queries: queries copy
// the requested slice under a read lock, so the scoring cycle works on a
// snapshot while producers keep appending.
type Store struct {
	mu        sync.RWMutex
	retention time.Duration
	series    map[seriesKey]*series
	now       func() time.Time
}

func NewStore(retention time.Duration) *Store {
	return &Store{
		retention: retention,
		series:    make(map[seriesKey]*series),
		now:       time.Now,
	}
}

// Ingest appends a reading to its series, creating the series silently on
// first sight (field schema drift must not error), and evicts entries
// older than the retention window.
func (s *Store) Ingest(r models.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := seriesKey{unit: r.UnitID, tag: r.TagID}
	sr, ok := s.series[key]
	if !ok {
		sr = &series{}
		s.series[key] = sr
	}

	p := Point{Timestamp: r.Timestamp, Value: r.Value, Quality: r.Quality}
	n := len(sr.points)
	if n == 0 || !sr.points[n-1].Timestamp.After(p.Timestamp) {
		sr.points = append(sr.points, p)
	} else {
		// Late arrival: insert in time order.
		idx := sort.Search(n, func(i int) bool {
			return sr.points[i].Timestamp.After(p.Timestamp)
		})
		sr.points = append(sr.points, Point{})
		copy(sr.points[idx+1:], sr.points[idx:])
		sr.points[idx] = p
	}

	cutoff := s.now().Add(-s.retention)
	sr.evict(cutoff)
}

func (sr *series) evict(cutoff time.Time) {
	drop := 0
	for drop < len(sr.points) && sr.points[drop].Timestamp.Before(cutoff) {
		drop++
	}
	if drop > 0 {
		sr.points = append(sr.points[:0:0], sr.points[drop:]...)
	}
}

// Window returns a time-ordered copy of the good-quality readings for
// (unit, tag) within the last d. Bad-quality samples are retained in the
// store but excluded here so they never skew statistics.
func (s *Store) Window(unit, tag string, d time.Duration) []Point {
	from := s.now().Add(-d)
	return s.window(unit, tag, from, time.Time{}, false)
}

// WindowAt is Window against the caller's clock: the returned points lie
// in [asOf-d, asOf], so a scoring cycle sees exactly the window its
// feature vector claims.
func (s *Store) WindowAt(unit, tag string, asOf time.Time, d time.Duration) []Point {
	return s.window(unit, tag, asOf.Add(-d), asOf, false)
}

// WindowWithBad is Window including bad-quality samples, for gap
// diagnostics.
func (s *Store) WindowWithBad(unit, tag string, d time.Duration) []Point {
	from := s.now().Add(-d)
	return s.window(unit, tag, from, time.Time{}, true)
}

// A zero until leaves the window open-ended on the right.
func (s *Store) window(unit, tag string, from, until time.Time, includeBad bool) []Point {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sr, ok := s.series[seriesKey{unit: unit, tag: tag}]
	if !ok {
		return nil
	}

	out := make([]Point, 0, len(sr.points))
	for _, p := range sr.points {
		if p.Timestamp.Before(from) {
			continue
		}
		if !until.IsZero() && p.Timestamp.After(until) {
			continue
		}
		if !includeBad && p.Quality == models.QualityBad {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SeriesCount reports how many (unit, tag) series are live.
func (s *Store) SeriesCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.series)
}
