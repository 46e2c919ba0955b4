package markers

import (
	"context"
	"sync"
	"time"

	common_models "litterbugs/internal/common/models"
)

// Marker is the map projection of a visible report.
type Marker struct {
	ID         string
	Coordinate common_models.Coordinate
	Report     common_models.Report
}

type Lister interface {
	ListUnexpired(ctx context.Context, now time.Time) ([]common_models.Report, error)
}

// Store holds at most one marker per report id, in insertion order.
type Store struct {
	mu      sync.RWMutex
	markers []Marker
	index   map[string]int
}

func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// Load fetches unexpired reports once and replaces the whole set. On error
// the current set is left untouched.
func (s *Store) Load(ctx context.Context, lister Lister, now time.Time) error {
	reports, err := lister.ListUnexpired(ctx, now)
	if err != nil {
		return err
	}
	s.Replace(reports, now)
	return nil
}

// Replace rebuilds the set, dropping reports that lack a coordinate or have
// already expired.
func (s *Store) Replace(reports []common_models.Report, now time.Time) {
	markers := make([]Marker, 0, len(reports))
	index := make(map[string]int, len(reports))
	for _, r := range reports {
		coord, ok := r.Coordinate()
		if !ok || !r.ExpiresAt.After(now) {
			continue
		}
		m := Marker{ID: r.ID, Coordinate: coord, Report: r.Clone()}
		if i, dup := index[r.ID]; dup {
			markers[i] = m
			continue
		}
		index[r.ID] = len(markers)
		markers = append(markers, m)
	}

	s.mu.Lock()
	s.markers, s.index = markers, index
	s.mu.Unlock()
}

// Insert appends a marker for report, or replaces the existing one with the
// same id. Reports without a coordinate are ignored.
func (s *Store) Insert(report common_models.Report) bool {
	coord, ok := report.Coordinate()
	if !ok || report.ID == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m := Marker{ID: report.ID, Coordinate: coord, Report: report.Clone()}
	if i, exists := s.index[report.ID]; exists {
		s.markers[i] = m
		return true
	}
	s.index[report.ID] = len(s.markers)
	s.markers = append(s.markers, m)
	return true
}

// Update swaps the report payload of an existing marker. The marker keeps its
// coordinate whatever the new payload carries.
func (s *Store) Update(report common_models.Report) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[report.ID]
	if !ok {
		return false
	}
	m := &s.markers[i]
	r := report.Clone()
	lat, lng := m.Coordinate.Latitude, m.Coordinate.Longitude
	r.Latitude, r.Longitude = &lat, &lng
	m.Report = r
	return true
}

func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.markers = append(s.markers[:i], s.markers[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.markers); j++ {
		s.index[s.markers[j].ID] = j
	}
	return true
}

func (s *Store) Get(id string) (Marker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return Marker{}, false
	}
	m := s.markers[i]
	m.Report = m.Report.Clone()
	return m, true
}

// List returns a snapshot in insertion order.
func (s *Store) List() []Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Marker, len(s.markers))
	for i, m := range s.markers {
		m.Report = m.Report.Clone()
		out[i] = m
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.markers)
}
