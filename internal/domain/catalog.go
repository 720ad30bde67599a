package domain

// ServiceType identifies the payment rail family a Service belongs to.
type ServiceType string

const (
	ServiceTypeBankPayout   ServiceType = "bank-payout"
	ServiceTypeWalletPayout ServiceType = "wallet-payout"
	ServiceTypeMobileMoney  ServiceType = "mobile-money"
	ServiceTypeCardPayment  ServiceType = "card-payment"
)

// ServiceTypes returns every supported service type in display order.
func ServiceTypes() []ServiceType {
	return []ServiceType{
		ServiceTypeBankPayout,
		ServiceTypeWalletPayout,
		ServiceTypeMobileMoney,
		ServiceTypeCardPayment,
	}
}

// Valid reports whether t is one of the supported service types.
func (t ServiceType) Valid() bool {
	switch t {
	case ServiceTypeBankPayout, ServiceTypeWalletPayout, ServiceTypeMobileMoney, ServiceTypeCardPayment:
		return true
	}
	return false
}

// Region is the top-level grouping of the pricing catalog (e.g. "Europe").
// Region IDs are unique across the whole catalog.
type Region struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Countries []Country `json:"countries" yaml:"countries"`
}

// Country is an ISO-coded market within a region. Codes are unique within
// their owning region and always stored uppercase.
type Country struct {
	Code     string    `json:"code" yaml:"code"`
	Name     string    `json:"name" yaml:"name"`
	Services []Service `json:"services" yaml:"services"`
}

// Service is a single payment rail offered in a country, with its limits and pricing.
type Service struct {
	ID               string           `json:"id" yaml:"id"`
	Name             string           `json:"name" yaml:"name"`
	Type             ServiceType      `json:"type" yaml:"type"`
	Currency         string           `json:"currency" yaml:"currency"`
	Coverage         string           `json:"coverage" yaml:"coverage"`
	TransactionLimit TransactionLimit `json:"transactionLimit" yaml:"transactionLimit"`
	TAT              string           `json:"tat" yaml:"tat"` // turnaround time, e.g. "T+1"
	FeeStructure     FeeStructure     `json:"feeStructure" yaml:"feeStructure"`
}

// TransactionLimit bounds the amount of a single transaction.
type TransactionLimit struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// FeeStructure is the price charged per transaction: a fixed part plus a percentage.
type FeeStructure struct {
	Fixed      float64 `json:"fixed" yaml:"fixed"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
	Currency   string  `json:"currency" yaml:"currency"`
}

// UpdateRegionRequest is a partial update of a region.
// ID is accepted for symmetry with the create payload but is never applied.
type UpdateRegionRequest struct {
	ID   *string `json:"id,omitempty"`
	Name *string `json:"name,omitempty"`
}

// UpdateCountryRequest is a partial update of a country. Code is immutable.
type UpdateCountryRequest struct {
	Code *string `json:"code,omitempty"`
	Name *string `json:"name,omitempty"`
}

// UpdateServiceRequest is a field-level partial update of a service. ID is immutable.
type UpdateServiceRequest struct {
	ID               *string           `json:"id,omitempty"`
	Name             *string           `json:"name,omitempty"`
	Type             *ServiceType      `json:"type,omitempty"`
	Currency         *string           `json:"currency,omitempty"`
	Coverage         *string           `json:"coverage,omitempty"`
	TransactionLimit *TransactionLimit `json:"transactionLimit,omitempty"`
	TAT              *string           `json:"tat,omitempty"`
	FeeStructure     *FeeStructure     `json:"feeStructure,omitempty"`
}

// CatalogStats summarizes the size of a catalog tree.
type CatalogStats struct {
	Regions   int `json:"regions"`
	Countries int `json:"countries"`
	Services  int `json:"services"`
}

// CatalogStatus is returned by the status endpoint.
type CatalogStatus struct {
	State string       `json:"state"`
	Error string       `json:"error,omitempty"`
	ETag  string       `json:"etag"`
	Stats CatalogStats `json:"stats"`
}
