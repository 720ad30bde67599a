package catalog

import "github.com/bcnelson/pricing-catalog/internal/domain"

// DefaultCatalog returns the built-in catalog used to seed an empty slot and
// by ResetToDefault. Each call returns a fresh tree.
func DefaultCatalog() []domain.Region {
	visaMastercard := func(currency string, min, max float64) domain.Service {
		return domain.Service{
			ID: "cards", Name: "Visa / Mastercard", Type: domain.ServiceTypeCardPayment,
			Currency: currency, Coverage: "Visa and Mastercard debit and credit cards",
			TransactionLimit: domain.TransactionLimit{Min: min, Max: max},
			TAT:              "T+2", FeeStructure: domain.FeeStructure{Fixed: 0, Percentage: 2.9, Currency: currency},
		}
	}

	return []domain.Region{
		{
			ID: "europe", Name: "Europe",
			Countries: []domain.Country{
				{
					Code: "DE", Name: "Germany",
					Services: []domain.Service{
						{
							ID: "sepa", Name: "SEPA Credit Transfer", Type: domain.ServiceTypeBankPayout,
							Currency: "EUR", Coverage: "All SEPA reachable banks",
							TransactionLimit: domain.TransactionLimit{Min: 1, Max: 1000000},
							TAT:              "T+1", FeeStructure: domain.FeeStructure{Fixed: 0.25, Percentage: 0, Currency: "EUR"},
						},
						{
							ID: "sepa-instant", Name: "SEPA Instant", Type: domain.ServiceTypeBankPayout,
							Currency: "EUR", Coverage: "SCT Inst participating banks",
							TransactionLimit: domain.TransactionLimit{Min: 1, Max: 100000},
							TAT:              "Real Time", FeeStructure: domain.FeeStructure{Fixed: 0.5, Percentage: 0, Currency: "EUR"},
						},
						visaMastercard("EUR", 1, 25000),
					},
				},
				{
					Code: "FR", Name: "France",
					Services: []domain.Service{
						{
							ID: "sepa", Name: "SEPA Credit Transfer", Type: domain.ServiceTypeBankPayout,
							Currency: "EUR", Coverage: "All SEPA reachable banks",
							TransactionLimit: domain.TransactionLimit{Min: 1, Max: 1000000},
							TAT:              "T+1", FeeStructure: domain.FeeStructure{Fixed: 0.25, Percentage: 0, Currency: "EUR"},
						},
					},
				},
				{
					Code: "GB", Name: "United Kingdom",
					Services: []domain.Service{
						{
							ID: "faster-payments", Name: "Faster Payments", Type: domain.ServiceTypeBankPayout,
							Currency: "GBP", Coverage: "All UK sort codes on Faster Payments",
							TransactionLimit: domain.TransactionLimit{Min: 1, Max: 1000000},
							TAT:              "Real Time", FeeStructure: domain.FeeStructure{Fixed: 0.2, Percentage: 0, Currency: "GBP"},
						},
						visaMastercard("GBP", 1, 20000),
					},
				},
			},
		},
		{
			ID: "north-america", Name: "North America",
			Countries: []domain.Country{
				{
					Code: "US", Name: "United States",
					Services: []domain.Service{
						{
							ID: "ach", Name: "ACH", Type: domain.ServiceTypeBankPayout,
							Currency: "USD", Coverage: "All ACH participating banks",
							TransactionLimit: domain.TransactionLimit{Min: 1, Max: 500000},
							TAT:              "T+1", FeeStructure: domain.FeeStructure{Fixed: 0.3, Percentage: 0, Currency: "USD"},
						},
						visaMastercard("USD", 1, 50000),
					},
				},
				{
					Code: "CA", Name: "Canada",
					Services: []domain.Service{
						{
							ID: "interac", Name: "Interac e-Transfer", Type: domain.ServiceTypeBankPayout,
							Currency: "CAD", Coverage: "Interac member institutions",
							TransactionLimit: domain.TransactionLimit{Min: 1, Max: 25000},
							TAT:              "Real Time", FeeStructure: domain.FeeStructure{Fixed: 1.5, Percentage: 0, Currency: "CAD"},
						},
					},
				},
			},
		},
		{
			ID: "africa", Name: "Africa",
			Countries: []domain.Country{
				{
					Code: "KE", Name: "Kenya",
					Services: []domain.Service{
						{
							ID: "mpesa", Name: "M-Pesa", Type: domain.ServiceTypeMobileMoney,
							Currency: "KES", Coverage: "Safaricom M-Pesa subscribers",
							TransactionLimit: domain.TransactionLimit{Min: 10, Max: 250000},
							TAT:              "Real Time", FeeStructure: domain.FeeStructure{Fixed: 15, Percentage: 0.5, Currency: "KES"},
						},
					},
				},
				{
					Code: "NG", Name: "Nigeria",
					Services: []domain.Service{
						{
							ID: "nip", Name: "NIBSS Instant Payment", Type: domain.ServiceTypeBankPayout,
							Currency: "NGN", Coverage: "All NIBSS member banks",
							TransactionLimit: domain.TransactionLimit{Min: 100, Max: 10000000},
							TAT:              "Real Time", FeeStructure: domain.FeeStructure{Fixed: 50, Percentage: 0, Currency: "NGN"},
						},
					},
				},
			},
		},
		{
			ID: "asia-pacific", Name: "Asia-Pacific",
			Countries: []domain.Country{
				{
					Code: "IN", Name: "India",
					Services: []domain.Service{
						{
							ID: "upi", Name: "UPI", Type: domain.ServiceTypeBankPayout,
							Currency: "INR", Coverage: "All UPI enabled banks",
							TransactionLimit: domain.TransactionLimit{Min: 1, Max: 100000},
							TAT:              "Real Time", FeeStructure: domain.FeeStructure{Fixed: 0, Percentage: 0.3, Currency: "INR"},
						},
					},
				},
				{
					Code: "PH", Name: "Philippines",
					Services: []domain.Service{
						{
							ID: "gcash", Name: "GCash", Type: domain.ServiceTypeWalletPayout,
							Currency: "PHP", Coverage: "Verified GCash wallets",
							TransactionLimit: domain.TransactionLimit{Min: 1, Max: 100000},
							TAT:              "Real Time", FeeStructure: domain.FeeStructure{Fixed: 10, Percentage: 0, Currency: "PHP"},
						},
					},
				},
			},
		},
	}
}
