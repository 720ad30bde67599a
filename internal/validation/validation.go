// Package validation provides validation functions for pricing catalog entities.
// Single-value validators return a plain error; entity validators collect every
// problem they find into ValidationErrors keyed by a JSON field path.
package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bcnelson/pricing-catalog/internal/domain"
)

// isLower returns true if the byte is a lowercase ASCII letter.
func isLower(b byte) bool {
	return b >= 'a' && b <= 'z'
}

// isUpper returns true if the byte is an uppercase ASCII letter.
func isUpper(b byte) bool {
	return b >= 'A' && b <= 'Z'
}

// isNum returns true if the byte is an ASCII digit.
func isNum(b byte) bool {
	return b >= '0' && b <= '9'
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ValidateRegionID validates a region slug.
// Region IDs must start with a lowercase letter or digit and contain only
// lowercase letters, digits, or hyphens.
func ValidateRegionID(id string) error {
	if id == "" {
		return fmt.Errorf("region id must not be empty")
	}
	if !isLower(id[0]) && !isNum(id[0]) {
		return fmt.Errorf("region id must start with a lowercase letter or digit")
	}
	for _, b := range []byte(id) {
		if !isLower(b) && !isNum(b) && b != '-' {
			return fmt.Errorf("region ids can only contain lowercase letters, numbers, or hyphens")
		}
	}
	return nil
}

// NormalizeCountryCode trims and uppercases a country code.
func NormalizeCountryCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCountryCode validates an ISO-3166 alpha-2 style code.
// The code must already be normalized to uppercase.
func ValidateCountryCode(code string) error {
	if len(code) != 2 {
		return fmt.Errorf("country code must be exactly 2 characters")
	}
	if !isUpper(code[0]) || !isUpper(code[1]) {
		return fmt.Errorf("country code must contain only letters A-Z")
	}
	return nil
}

// ValidateServiceID validates a service identifier.
func ValidateServiceID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("service id must not be empty")
	}
	if strings.ContainsAny(id, "/ \t\n") {
		return fmt.Errorf("service id must not contain slashes or whitespace")
	}
	return nil
}

// ValidateCurrency validates an ISO-4217 style currency code: exactly three
// uppercase letters.
func ValidateCurrency(code string) error {
	if len(code) != 3 {
		return fmt.Errorf("currency must be exactly 3 uppercase letters")
	}
	for _, b := range []byte(code) {
		if !isUpper(b) {
			return fmt.Errorf("currency must be exactly 3 uppercase letters")
		}
	}
	return nil
}

// ValidateServiceType validates a service type.
func ValidateServiceType(t domain.ServiceType) error {
	if !t.Valid() {
		return fmt.Errorf("invalid service type: %q", t)
	}
	return nil
}

// ValidateTransactionLimit checks that both bounds are finite, positive and min < max.
func ValidateTransactionLimit(limit domain.TransactionLimit) error {
	if !isFinite(limit.Min) || !isFinite(limit.Max) {
		return fmt.Errorf("limits must be finite numbers")
	}
	if !(limit.Min > 0) {
		return fmt.Errorf("minimum must be greater than 0")
	}
	if !(limit.Max > 0) {
		return fmt.Errorf("maximum must be greater than 0")
	}
	if limit.Min >= limit.Max {
		return fmt.Errorf("minimum must be less than maximum")
	}
	return nil
}

// ValidateRegion validates a region including every nested country and service.
func ValidateRegion(r domain.Region) ValidationErrors {
	var errs ValidationErrors
	validateRegion(&errs, "", r)
	return errs
}

// ValidateCountry validates a country including every nested service.
func ValidateCountry(c domain.Country) ValidationErrors {
	var errs ValidationErrors
	validateCountry(&errs, "", c)
	return errs
}

// ValidateService validates every field of a service.
func ValidateService(s domain.Service) ValidationErrors {
	var errs ValidationErrors
	validateService(&errs, "", s)
	return errs
}

// ValidateCatalog validates a whole catalog tree: every field-level rule plus
// region id uniqueness across the tree.
func ValidateCatalog(regions []domain.Region) ValidationErrors {
	var errs ValidationErrors
	seen := make(map[string]bool, len(regions))
	for i, r := range regions {
		path := fmt.Sprintf("regions[%d].", i)
		if seen[r.ID] {
			errs.Add(path+"id", r.ID, "duplicate region id")
		}
		seen[r.ID] = true
		validateRegion(&errs, path, r)
	}
	return errs
}

func validateRegion(errs *ValidationErrors, path string, r domain.Region) {
	if err := ValidateRegionID(r.ID); err != nil {
		errs.Add(path+"id", r.ID, err.Error())
	}
	if strings.TrimSpace(r.Name) == "" {
		errs.Add(path+"name", r.Name, "name is required")
	}
	seen := make(map[string]bool, len(r.Countries))
	for i, c := range r.Countries {
		cpath := fmt.Sprintf("%scountries[%d].", path, i)
		if seen[c.Code] {
			errs.Add(cpath+"code", c.Code, "duplicate country code in region")
		}
		seen[c.Code] = true
		validateCountry(errs, cpath, c)
	}
}

func validateCountry(errs *ValidationErrors, path string, c domain.Country) {
	if err := ValidateCountryCode(c.Code); err != nil {
		errs.Add(path+"code", c.Code, err.Error())
	}
	if strings.TrimSpace(c.Name) == "" {
		errs.Add(path+"name", c.Name, "name is required")
	}
	seen := make(map[string]bool, len(c.Services))
	for i, s := range c.Services {
		spath := fmt.Sprintf("%sservices[%d].", path, i)
		if seen[s.ID] {
			errs.Add(spath+"id", s.ID, "duplicate service id in country")
		}
		seen[s.ID] = true
		validateService(errs, spath, s)
	}
}

func validateService(errs *ValidationErrors, path string, s domain.Service) {
	if err := ValidateServiceID(s.ID); err != nil {
		errs.Add(path+"id", s.ID, err.Error())
	}
	if strings.TrimSpace(s.Name) == "" {
		errs.Add(path+"name", s.Name, "name is required")
	}
	if err := ValidateServiceType(s.Type); err != nil {
		errs.Add(path+"type", string(s.Type), err.Error())
	}
	if err := ValidateCurrency(s.Currency); err != nil {
		errs.Add(path+"currency", s.Currency, err.Error())
	}
	if strings.TrimSpace(s.Coverage) == "" {
		errs.Add(path+"coverage", s.Coverage, "coverage is required")
	}
	if err := ValidateTransactionLimit(s.TransactionLimit); err != nil {
		value := formatAmount(s.TransactionLimit.Min) + ".." + formatAmount(s.TransactionLimit.Max)
		errs.Add(path+"transactionLimit", value, err.Error())
	}
	if strings.TrimSpace(s.TAT) == "" {
		errs.Add(path+"tat", s.TAT, "turnaround time is required")
	}
	if !isFinite(s.FeeStructure.Fixed) {
		errs.Add(path+"feeStructure.fixed", formatAmount(s.FeeStructure.Fixed), "fixed fee must be a finite number")
	} else if s.FeeStructure.Fixed < 0 {
		errs.Add(path+"feeStructure.fixed", formatAmount(s.FeeStructure.Fixed), "fixed fee must not be negative")
	}
	if !isFinite(s.FeeStructure.Percentage) {
		errs.Add(path+"feeStructure.percentage", formatAmount(s.FeeStructure.Percentage), "percentage fee must be a finite number")
	} else if s.FeeStructure.Percentage < 0 {
		errs.Add(path+"feeStructure.percentage", formatAmount(s.FeeStructure.Percentage), "percentage fee must not be negative")
	}
	if err := ValidateCurrency(s.FeeStructure.Currency); err != nil {
		errs.Add(path+"feeStructure.currency", s.FeeStructure.Currency, err.Error())
	}
}
