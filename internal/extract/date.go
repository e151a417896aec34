package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"billtools/pkg/models"
)

// Date roles.
const (
	RoleBill            = "bill"
	RoleReading         = "reading"
	RoleBillingPeriod   = "billing_period"
	RoleCurrentReading  = "current_reading"
	RolePreviousReading = "previous_reading"
	RoleDue             = "due"
	RoleStart           = "start"
	RoleEnd             = "end"
	RoleUnlabelled      = "date"
)

// DateNotFound is the sentinel value when no date is present.
const DateNotFound = "Date not found"

// DatePriority is the order in which roles are preferred for the fact date.
var DatePriority = []string{RoleBill, RoleReading, RoleBillingPeriod, RoleCurrentReading, RoleDue}

type dateLabel struct {
	role string
	re   *regexp.Regexp
}

var dateLabels = []dateLabel{
	{RoleBill, words("tarikh bil", "bill date", "tarikh invois", "invoice date", "date of bill", "tarikh penyata", "statement date")},
	{RoleReading, words("tarikh bacaan", "reading date", "meter reading date")},
	{RoleBillingPeriod, words("tempoh bil", "billing period", "tempoh", "period")},
	{RoleCurrentReading, words("bacaan semasa", "current reading")},
	{RolePreviousReading, words("bacaan sebelum", "bacaan lalu", "previous reading")},
	{RoleDue, words("tarikh akhir", "due date", "bayar sebelum", "perlu dibayar sebelum", "pay before", "tarikh perlu bayar")},
	{RoleStart, words("tarikh mula", "start date", "dari", "from")},
	{RoleEnd, words("end date", "hingga", "sehingga", "until")},
}

const dateLabelReach = 40

var (
	reNumericDate = regexp.MustCompile(`\b(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4}|\d{2})\b`)
	reNamedDate   = regexp.MustCompile(`(?i)\b(\d{1,2})[\s\-]*([a-z]{3,9})\.?[\s\-,]*(\d{4}|\d{2})\b`)
)

var monthNames = map[string]time.Month{
	"jan": time.January, "januari": time.January, "january": time.January,
	"feb": time.February, "februari": time.February, "february": time.February,
	"mac": time.March, "mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"mei": time.May, "may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "julai": time.July, "july": time.July,
	"ogo": time.August, "ogos": time.August, "aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"okt": time.October, "oktober": time.October, "oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dis": time.December, "disember": time.December, "dec": time.December, "december": time.December,
}

// Dates is the outcome of date extraction.
type Dates struct {
	Primary    models.DateField
	All        []models.DateField
	Confidence int
}

type foundDate struct {
	field  models.DateField
	offset int
}

// Dates finds every day-first date in text, assigns each the role of the
// nearest label before it on the same line, and selects the primary date by
// DatePriority. Without a prioritised role the first date wins; with no date
// at all Primary.Value is DateNotFound.
func (e *Extractor) Dates(text string) Dates {
	found := findDates(text)
	if len(found) == 0 {
		return Dates{Primary: models.DateField{Value: DateNotFound}}
	}

	all := make([]models.DateField, len(found))
	for i, f := range found {
		all[i] = f.field
	}

	for _, role := range DatePriority {
		for _, f := range found {
			if f.field.Role == role {
				return Dates{Primary: f.field, All: all, Confidence: DatePriorityScore}
			}
		}
	}
	return Dates{Primary: all[0], All: all, Confidence: DateFirstScore}
}

func findDates(text string) []foundDate {
	var out []foundDate
	taken := map[int]bool{}

	for _, loc := range reNumericDate.FindAllStringSubmatchIndex(text, -1) {
		day, _ := strconv.Atoi(text[loc[2]:loc[3]])
		month, _ := strconv.Atoi(text[loc[4]:loc[5]])
		year, _ := strconv.Atoi(text[loc[6]:loc[7]])
		if t, ok := makeDate(day, time.Month(month), year); ok {
			out = append(out, newFoundDate(text, loc[0], loc[1], t))
			taken[loc[0]] = true
		}
	}
	for _, loc := range reNamedDate.FindAllStringSubmatchIndex(text, -1) {
		if taken[loc[0]] {
			continue
		}
		month, ok := monthNames[strings.ToLower(text[loc[4]:loc[5]])]
		if !ok {
			continue
		}
		day, _ := strconv.Atoi(text[loc[2]:loc[3]])
		year, _ := strconv.Atoi(text[loc[6]:loc[7]])
		if t, ok := makeDate(day, month, year); ok {
			out = append(out, newFoundDate(text, loc[0], loc[1], t))
		}
	}

	// document order
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].offset < out[j-1].offset; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func newFoundDate(text string, start, end int, t time.Time) foundDate {
	return foundDate{
		field: models.DateField{
			Role:  dateRole(text, start),
			Value: text[start:end],
			Time:  &t,
		},
		offset: start,
	}
}

// dateRole picks the label ending closest before start on the same line.
// When two labels end at the same place the longer one wins.
func dateRole(text string, start int) string {
	prefix := before(text, start, dateLabelReach)
	role, bestEnd, bestLen := RoleUnlabelled, -1, 0
	for _, l := range dateLabels {
		for _, loc := range l.re.FindAllStringIndex(prefix, -1) {
			end, length := loc[1], loc[1]-loc[0]
			if end > bestEnd || end == bestEnd && length > bestLen {
				role, bestEnd, bestLen = l.role, end, length
			}
		}
	}
	return role
}

func makeDate(day int, month time.Month, year int) (time.Time, bool) {
	if year < 100 {
		year += 2000
	}
	if month < time.January || month > time.December || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}
