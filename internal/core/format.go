package core

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var brPrinter = message.NewPrinter(language.BrazilianPortuguese)

// FormatThousands renders n with "." as the thousands separator, as pt-BR does.
func FormatThousands(n int64) string {
	return brPrinter.Sprintf("%d", n)
}

// FormatBRL renders a price the way listings show it, e.g. "R$ 1.250.000".
func FormatBRL(n int64) string {
	return "R$ " + FormatThousands(n)
}
