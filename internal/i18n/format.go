package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatPrice renders an amount with en-US digit grouping followed by the
// currency code, e.g. "12,500 KZT". Grouping does not follow the UI locale.
func FormatPrice(amount int64, currency string) string {
	s := message.NewPrinter(language.AmericanEnglish).Sprintf("%d", amount)
	if currency == "" {
		return s
	}
	return s + " " + currency
}
