package dateparse

import "time"

// monthNames covers Portuguese and English, full and abbreviated,
// without accents. Lookups fold accents first.
var monthNames = map[string]time.Month{
	"janeiro": time.January, "jan": time.January, "january": time.January,
	"fevereiro": time.February, "fev": time.February, "february": time.February, "feb": time.February,
	"marco": time.March, "mar": time.March, "march": time.March,
	"abril": time.April, "abr": time.April, "april": time.April, "apr": time.April,
	"maio": time.May, "mai": time.May, "may": time.May,
	"junho": time.June, "jun": time.June, "june": time.June,
	"julho": time.July, "jul": time.July, "july": time.July,
	"agosto": time.August, "ago": time.August, "august": time.August, "aug": time.August,
	"setembro": time.September, "set": time.September, "september": time.September, "sep": time.September, "sept": time.September,
	"outubro": time.October, "out": time.October, "october": time.October, "oct": time.October,
	"novembro": time.November, "nov": time.November, "november": time.November,
	"dezembro": time.December, "dez": time.December, "december": time.December, "dec": time.December,
}

var weekdayTokens = []string{
	"segunda-feira", "terca-feira", "quarta-feira", "quinta-feira", "sexta-feira",
	"segunda", "terca", "quarta", "quinta", "sexta", "sabado", "domingo",
	"seg", "ter", "qua", "qui", "sex", "sab", "dom",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"mon", "tue", "tues", "wed", "thu", "thur", "thurs", "fri", "sat", "sun",
}

var relativeDays = map[string]int{
	"hoje":     0,
	"today":    0,
	"amanha":   1,
	"tomorrow": 1,
}
