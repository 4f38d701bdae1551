package listing

import "property-listing/internal/domain"

// CountByKind kind 为 todos 时返回总数
func CountByKind(properties []domain.Property, kind domain.TransactionKind) int {
	if kind == "" || kind == domain.TransactionAll {
		return len(properties)
	}
	n := 0
	for _, p := range properties {
		if p.TransactionType == kind {
			n++
		}
	}
	return n
}

// AveragePrice 空输入返回 0
func AveragePrice(properties []domain.Property) float64 {
	if len(properties) == 0 {
		return 0
	}
	var sum float64
	for _, p := range properties {
		sum += p.Price
	}
	return sum / float64(len(properties))
}

func CountActive(properties []domain.Property) int {
	n := 0
	for _, p := range properties {
		if p.Active {
			n++
		}
	}
	return n
}

type Summary struct {
	Total        int     `json:"total"`
	Sale         int     `json:"sale"`
	Rent         int     `json:"rent"`
	RentToOwn    int     `json:"rentToOwn"`
	Active       int     `json:"active"`
	AveragePrice float64 `json:"averagePrice"`
}

func Summarize(properties []domain.Property) Summary {
	return Summary{
		Total:        len(properties),
		Sale:         CountByKind(properties, domain.TransactionSale),
		Rent:         CountByKind(properties, domain.TransactionRent),
		RentToOwn:    CountByKind(properties, domain.TransactionRentToOwn),
		Active:       CountActive(properties),
		AveragePrice: AveragePrice(properties),
	}
}
