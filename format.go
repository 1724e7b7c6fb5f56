package viewz

import "time"

// DeliveryDateLayout renders an estimated delivery date as month name and year.
const DeliveryDateLayout = "January 2006"

// Formatter renders values for display.
type Formatter interface {
	// CurrencySymbol returns the symbol used for prices in the given ISO 3166
	// country. The result may carry surrounding whitespace.
	CurrencySymbol(countryCode string) string

	// FormatDate renders epochSeconds with a Go time layout in loc.
	FormatDate(epochSeconds int64, layout string, loc *time.Location) string
}

// currencySymbols maps a country to the symbol shown next to pledge amounts.
// Dollar countries other than the US carry their country prefix.
var currencySymbols = map[string]string{
	"US": "$",
	"CA": "CA$ ",
	"AU": "AU$ ",
	"NZ": "NZ$ ",
	"HK": "HK$ ",
	"SG": "S$ ",
	"MX": "MX$ ",
	"GB": "£",
	"JP": "¥",
	"CH": "CHF ",
	"DK": "kr ",
	"NO": "kr ",
	"SE": "kr ",
	"PL": "zł ",
	"AT": "€",
	"BE": "€",
	"DE": "€",
	"ES": "€",
	"FR": "€",
	"GR": "€",
	"IE": "€",
	"IT": "€",
	"LU": "€",
	"NL": "€",
	"SI": "€",
}

// DefaultFormatter formats with fixed, locale-independent rules.
type DefaultFormatter struct{}

// CurrencySymbol returns the symbol for countryCode, or "$" if unknown.
func (DefaultFormatter) CurrencySymbol(countryCode string) string {
	if s, ok := currencySymbols[countryCode]; ok {
		return s
	}
	return "$"
}

// FormatDate renders epochSeconds in loc, or UTC when loc is nil.
func (DefaultFormatter) FormatDate(epochSeconds int64, layout string, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return time.Unix(epochSeconds, 0).In(loc).Format(layout)
}

var _ Formatter = DefaultFormatter{}
