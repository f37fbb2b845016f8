package rankings

import "fmt"

// Record is one row of the ranking table.
type Record struct {
	Title   string `json:"title"`
	Rank    string `json:"rank"`
	Country string `json:"country"`
}

const baseURL = "https://www.topuniversities.com/university-rankings/world-university-rankings/"

// URLForYear returns the ranking page for year.
func URLForYear(year int) string {
	return fmt.Sprintf("%s%d", baseURL, year)
}

// Selectors used against the ranking page.
const (
	RowSelector     = "#qs-rankings > tbody > tr"
	TitleSelector   = ".uni .title"
	RankSelector    = ".rank .rank"
	CountrySelector = ".country > div"

	// ReadySelector matches once a row carries data. The table shows a
	// placeholder row while it loads, so RowSelector alone is not enough.
	ReadySelector = RowSelector + " " + TitleSelector

	// "Results per page" control and the option value that shows every row.
	LengthControlSelector = "#qs-rankings_length select"
	ShowAllValue          = "-1"
)
