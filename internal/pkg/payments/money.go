package payments

import (
	"strings"

	"github.com/ManuelReschke/ShopFox/app/models"
	"github.com/shopspring/decimal"
)

const (
	CurrencyCOP = "COP"
	CurrencyUSD = "USD"
)

// DefaultSurcharge is the flat price added to a customized line item.
var DefaultSurcharge = decimal.NewFromInt(5)

var zeroDecimalCurrencies = map[string]bool{
	"CLP": true,
	"JPY": true,
	"KRW": true,
	"PYG": true,
}

// MinorDigits returns the number of minor-unit digits of an ISO currency.
func MinorDigits(currency string) int32 {
	if zeroDecimalCurrencies[strings.ToUpper(currency)] {
		return 0
	}
	return 2
}

// ToMinorUnits converts a major-unit amount into integral minor units of
// currency after applying the exchange rate. The exact decimal product is
// rounded half away from zero. Signature generation and verification both
// go through this function so they can never disagree.
func ToMinorUnits(amount, exchangeRate decimal.Decimal, currency string) int64 {
	return amount.Mul(exchangeRate).Shift(MinorDigits(currency)).Round(0).IntPart()
}

// FromMinorUnits converts integral minor units back to a major-unit amount.
func FromMinorUnits(minor int64, currency string) decimal.Decimal {
	return decimal.New(minor, -MinorDigits(currency))
}

// CurrencyFor returns the charge currency used with a gateway.
func CurrencyFor(provider string) string {
	if provider == models.PaymentProviderPayPal {
		return CurrencyUSD
	}
	return CurrencyCOP
}

// UnitPrice returns the price of one unit of item. Customized items carry a
// flat surcharge independent of the length of the customization.
func UnitPrice(item models.LineItem, surcharge decimal.Decimal) decimal.Decimal {
	if item.IsCustomized() {
		return item.Price.Add(surcharge)
	}
	return item.Price
}

// Subtotal sums unit price times quantity over all items.
func Subtotal(items []models.LineItem, surcharge decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(UnitPrice(item, surcharge).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
