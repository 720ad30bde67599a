package catalog

import "github.com/bcnelson/pricing-catalog/internal/domain"

// CloneRegions returns a deep copy of a catalog tree. A nil tree stays nil.
func CloneRegions(regions []domain.Region) []domain.Region {
	if regions == nil {
		return nil
	}
	out := make([]domain.Region, len(regions))
	for i, r := range regions {
		out[i] = cloneRegion(r)
	}
	return out
}

func cloneRegion(r domain.Region) domain.Region {
	if r.Countries != nil {
		countries := make([]domain.Country, len(r.Countries))
		for i, c := range r.Countries {
			countries[i] = cloneCountry(c)
		}
		r.Countries = countries
	}
	return r
}

// Services are plain values, so copying the slice is a deep copy.
func cloneCountry(c domain.Country) domain.Country {
	if c.Services != nil {
		services := make([]domain.Service, len(c.Services))
		copy(services, c.Services)
		c.Services = services
	}
	return c
}
