package catalog

import (
	"fmt"
	"sort"

	"shorebook/internal/models"
)

// Snapshot is a read-only view of the resource catalog, grouped by zone and
// ordered by sequence index. It is immutable during a booking attempt;
// callers rebuild it when the layout collaborator publishes changes.
type Snapshot struct {
	byID   map[int64]models.Resource
	byZone map[string][]models.Resource
}

// New builds a snapshot from a resource list. Inactive resources are kept
// out of zone rows but stay resolvable by ID so existing reservations can
// still be displayed.
func New(resources []models.Resource) *Snapshot {
	s := &Snapshot{
		byID:   make(map[int64]models.Resource, len(resources)),
		byZone: make(map[string][]models.Resource),
	}
	for _, r := range resources {
		s.byID[r.ID] = r
		if r.IsActive {
			s.byZone[r.ZoneID] = append(s.byZone[r.ZoneID], r)
		}
	}
	for zone := range s.byZone {
		row := s.byZone[zone]
		sort.Slice(row, func(i, j int) bool { return row[i].SeqIndex < row[j].SeqIndex })
	}
	return s
}

// Resource resolves a resource by ID.
func (s *Snapshot) Resource(id int64) (models.Resource, bool) {
	r, ok := s.byID[id]
	return r, ok
}

// Zone returns the zone's active resources in sequence order.
func (s *Snapshot) Zone(zoneID string) []models.Resource {
	return s.byZone[zoneID]
}

// Zones lists the zone IDs present in the snapshot, sorted.
func (s *Snapshot) Zones() []string {
	zones := make([]string, 0, len(s.byZone))
	for zone := range s.byZone {
		zones = append(zones, zone)
	}
	sort.Strings(zones)
	return zones
}

// CapacitySum totals the capacity of the selected resources.
func (s *Snapshot) CapacitySum(resourceIDs []int64) (int64, error) {
	var total int64
	for _, id := range resourceIDs {
		r, ok := s.byID[id]
		if !ok {
			return 0, fmt.Errorf("resource %d not in catalog", id)
		}
		total += r.Capacity
	}
	return total, nil
}

// Select resolves a set of IDs, failing on the first unknown one.
func (s *Snapshot) Select(resourceIDs []int64) ([]models.Resource, error) {
	out := make([]models.Resource, 0, len(resourceIDs))
	for _, id := range resourceIDs {
		r, ok := s.byID[id]
		if !ok {
			return nil, fmt.Errorf("resource %d not in catalog", id)
		}
		out = append(out, r)
	}
	return out, nil
}
