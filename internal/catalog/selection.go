package catalog

import (
	"github.com/bcnelson/pricing-catalog/internal/domain"
	"github.com/bcnelson/pricing-catalog/internal/validation"
)

// Selection is a caller's current position in the tree, held by key only.
// It is resolved against whatever snapshot the caller reads next, so it never
// dangles after a delete.
type Selection struct {
	RegionID    string `json:"regionId,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
}

// SelectRegion changes the selected region. A country selection only makes
// sense inside one region, so it is cleared whenever the region changes.
func (s *Selection) SelectRegion(id string) {
	if id != s.RegionID {
		s.CountryCode = ""
	}
	s.RegionID = id
}

// SelectCountry selects a country within the current region.
func (s *Selection) SelectCountry(code string) {
	s.CountryCode = validation.NormalizeCountryCode(code)
}

// Clear drops both keys.
func (s *Selection) Clear() {
	s.RegionID = ""
	s.CountryCode = ""
}

// Resolve looks the keys up in regions. Missing keys resolve to nil, and a
// country is only resolved when its region is. The returned pointers alias
// the given snapshot.
func (s Selection) Resolve(regions []domain.Region) (*domain.Region, *domain.Country) {
	if s.RegionID == "" {
		return nil, nil
	}
	ri := findRegion(regions, s.RegionID)
	if ri < 0 {
		return nil, nil
	}
	region := &regions[ri]
	if s.CountryCode == "" {
		return region, nil
	}
	ci := findCountry(region.Countries, s.CountryCode)
	if ci < 0 {
		return region, nil
	}
	return region, &region.Countries[ci]
}

// Reconcile drops keys that no longer resolve in regions, so a selection read
// after a delete points at the deepest level that still exists.
func (s *Selection) Reconcile(regions []domain.Region) {
	region, country := s.Resolve(regions)
	if region == nil {
		s.Clear()
		return
	}
	if country == nil {
		s.CountryCode = ""
	}
}
