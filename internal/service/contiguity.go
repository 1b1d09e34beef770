package service

import (
	"time"

	"shorebook/internal/catalog"
	"shorebook/internal/models"
)

// ContiguityService determines whether a selection forms an unbroken run
// within its zone ordering. Advisory only: gaps warn staff that a booking
// leaves holes in a row, they never invalidate a draft on their own.
type ContiguityService struct {
	catalog *catalog.Snapshot
}

func NewContiguityService(cat *catalog.Snapshot) *ContiguityService {
	return &ContiguityService{catalog: cat}
}

// CheckContiguity computes the minimal sequence-index span covering the
// selection; the gap count is the number of other resources inside that
// span that are valid on the given day. Selections spanning zones are never
// contiguous.
func (s *ContiguityService) CheckContiguity(resourceIDs []int64, day time.Time) (models.ContiguityReport, error) {
	if len(resourceIDs) < 2 {
		return models.ContiguityReport{IsContiguous: true}, nil
	}

	selected, err := s.catalog.Select(resourceIDs)
	if err != nil {
		return models.ContiguityReport{}, err
	}

	zoneID := selected[0].ZoneID
	for _, r := range selected[1:] {
		if r.ZoneID != zoneID {
			return models.ContiguityReport{CrossZone: true}, nil
		}
	}

	minSeq, maxSeq := selected[0].SeqIndex, selected[0].SeqIndex
	inSelection := make(map[int64]bool, len(selected))
	for _, r := range selected {
		inSelection[r.ID] = true
		if r.SeqIndex < minSeq {
			minSeq = r.SeqIndex
		}
		if r.SeqIndex > maxSeq {
			maxSeq = r.SeqIndex
		}
	}

	gapCount := 0
	for _, r := range s.catalog.Zone(zoneID) {
		if r.SeqIndex <= minSeq || r.SeqIndex >= maxSeq {
			continue
		}
		if inSelection[r.ID] {
			continue
		}
		if !r.ValidOn(day) {
			// A temporary resource absent on this day leaves no hole.
			continue
		}
		gapCount++
	}

	return models.ContiguityReport{IsContiguous: gapCount == 0, GapCount: gapCount}, nil
}
