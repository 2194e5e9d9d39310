package testutil

import (
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

var (
	bankClasses  = []string{"N", "NM", "SM", "SB", "SA", "SL", "OI"}
	fdicRegions  = []string{"1", "2", "5", "9", "11", "12", "13", "14"}
	feedDateFrom = time.Date(1850, time.January, 1, 0, 0, 0, 0, time.UTC)
	feedDateTo   = time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// RandomRows returns n well-formed feed rows drawn from seed. About a third
// of the institutions are inactive with a closure date after their
// establishment; a few rows carry unparseable update dates.
func RandomRows(seed int64, n int) []FeedRow {
	faker := gofakeit.New(seed)
	rows := make([]FeedRow, n)

	for i := range rows {
		established := faker.DateRange(feedDateFrom, feedDateTo)
		inactive := faker.Number(0, 2) == 0
		region := faker.RandomString(fdicRegions)

		row := FeedRow{
			"CERT":     strconv.Itoa(i + 1),
			"NAME":     faker.Company() + " Bank",
			"STNAME":   faker.State(),
			"CITY":     faker.City(),
			"ACTIVE":   indicator(!inactive),
			"INACTIVE": indicator(inactive),
			"CONSERVE": indicator(faker.Number(0, 50) == 0),
			"BKCLASS":  faker.RandomString(bankClasses),
			"FED":      strconv.Itoa(faker.Number(1, 12)),
			"FDICREGN": region,
			"FDICDBS":  region,
			"OTSDIST":  strconv.Itoa(faker.Number(1, 5)),
			"ESTYMD":   established.Format("01/02/2006"),
			"ENDEFYMD": "12/31/9999",
			"DATEUPDT": faker.DateRange(established, feedDateTo).Format("01/02/2006"),
			"ASSET":    strconv.FormatFloat(faker.Float64Range(1, 5e6), 'f', 2, 64),
		}
		if inactive {
			row["ENDEFYMD"] = faker.DateRange(established, feedDateTo).Format("01/02/2006")
		}
		if faker.Number(0, 20) == 0 {
			row["DATEUPDT"] = "N/A"
		}
		rows[i] = row
	}

	return rows
}

func indicator(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
