package exporter

import (
	"database/sql"
	"strconv"
)

// DateLayout is the ISO date layout used by every sink.
const DateLayout = "2006-01-02"

// formatFloat formats a float64 with the shortest exact representation
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatBool formats a boolean value for CSV output
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Missing values are written as empty cells.

func formatNullBool(b sql.NullBool) string {
	if !b.Valid {
		return ""
	}
	return formatBool(b.Bool)
}

func formatNullInt(i sql.NullInt64) string {
	if !i.Valid {
		return ""
	}
	return formatInt(i.Int64)
}

func formatNullFloat(f sql.NullFloat64) string {
	if !f.Valid {
		return ""
	}
	return formatFloat(f.Float64)
}

func formatNullString(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	return s.String
}

func formatNullDate(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}
	return t.Time.Format(DateLayout)
}
