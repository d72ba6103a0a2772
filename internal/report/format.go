package report

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ggonsajang/comcard/internal/core"
)

var printer = message.NewPrinter(language.Korean)

// FormatDate renders a timestamp as "2025. 12. 29 오후 12:56:00".
func FormatDate(t core.LocalTime) string {
	hour := t.Hour()
	meridiem := "오전"
	if hour >= 12 {
		meridiem = "오후"
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d. %d. %d %s %d:%02d:%02d",
		t.Year(), int(t.Month()), t.Day(), meridiem, hour, t.Minute(), t.Second())
}

// FormatAmount groups thousands and appends the currency unit.
func FormatAmount(amount int64) string {
	return FormatNumber(amount) + "원"
}

// FormatNumber groups thousands the Korean way.
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}
