package domain

import (
	"database/sql"
	"time"
)

// InstitutionRecord is one banking institution from the FDIC institutions
// feed after typed cleaning. Nullable fields use the database/sql Null
// types: Valid=false means the source cell was blank or could not be
// repaired.
type InstitutionRecord struct {
	// Identity
	Cert    int64         `json:"cert" db:"cert" validate:"required"`
	FedRSSD sql.NullInt64 `json:"fed_rssd" db:"fed_rssd"`
	Name    string        `json:"name" db:"name"`
	Address string        `json:"address" db:"address"`
	Zip     string        `json:"zip" db:"zip"`

	// Open vocabulary categories (interned, unlabeled)
	StateName       string `json:"state_name" db:"stname"`
	StateAlpha      string `json:"state_alpha" db:"stalp"`
	City            string `json:"city" db:"city"`
	County          string `json:"county" db:"county"`
	CBSA            string `json:"cbsa" db:"cbsa"`
	MSA             string `json:"msa" db:"msa"`
	CSA             string `json:"csa" db:"csa"`
	CharterAgent    string `json:"charter_agent" db:"chrtagnt"`
	RegulatoryAgent string `json:"regulatory_agent" db:"regagnt"`
	FDICSupervisor  string `json:"fdic_supervisor" db:"fdicsupv"`

	// Status flags
	Active            sql.NullBool `json:"active" db:"active"`
	Inactive          sql.NullBool `json:"inactive" db:"inactive"`
	Conservatorship   sql.NullBool `json:"conservatorship" db:"conserve"`
	DeNovo            sql.NullBool `json:"de_novo" db:"denovo"`
	FederalCharter    sql.NullBool `json:"federal_charter" db:"fedchrtr"`
	InsuredFDIC       sql.NullBool `json:"insured_fdic" db:"insfdic"`
	InsuredBIF        sql.NullBool `json:"insured_bif" db:"insbif"`
	InsuredSAIF       sql.NullBool `json:"insured_saif" db:"inssaif"`
	InsuredCommercial sql.NullBool `json:"insured_commercial" db:"inscoml"`
	InsuredSavings    sql.NullBool `json:"insured_savings" db:"inssave"`

	// Closed vocabulary categories, recoded to labels
	BankClass   sql.NullString `json:"bank_class" db:"bkclass"`
	FedDistrict sql.NullString `json:"fed_district" db:"fed"`
	FDICRegion  sql.NullString `json:"fdic_region" db:"fdicregn"`
	OTSDistrict sql.NullString `json:"ots_district" db:"otsdist"`

	// Lifecycle dates
	Established sql.NullTime `json:"established" db:"estymd"`
	Closed      sql.NullTime `json:"closed" db:"endefymd"`
	LastUpdated sql.NullTime `json:"last_updated" db:"dateupdt"`
	Insured     sql.NullTime `json:"insured" db:"insdate"`
	Effective   sql.NullTime `json:"effective" db:"effdate"`
	Processed   sql.NullTime `json:"processed" db:"procdate"`

	// Raw text kept as delivered by the feed
	ChangeCodes [5]string `json:"change_codes" db:"changec"`
	CFPBEffDate string    `json:"cfpb_effective_date" db:"cfpbeffdte"`
	CFPBEndDate string    `json:"cfpb_end_date" db:"cfpbenddte"`

	// Financials, thousands of dollars
	TotalAssets   sql.NullFloat64 `json:"total_assets" db:"asset"`
	TotalDeposits sql.NullFloat64 `json:"total_deposits" db:"dep"`
}

// IsClosedBefore reports whether the institution is flagged inactive and
// its closure date falls strictly before t.
func (r InstitutionRecord) IsClosedBefore(t time.Time) bool {
	return r.Inactive.Valid && r.Inactive.Bool && r.Closed.Valid && r.Closed.Time.Before(t)
}

// IsEstablishedBefore reports whether the establishment date falls strictly
// before t.
func (r InstitutionRecord) IsEstablishedBefore(t time.Time) bool {
	return r.Established.Valid && r.Established.Time.Before(t)
}

// MissingClosure reports a record flagged inactive without a closure date.
func (r InstitutionRecord) MissingClosure() bool {
	return r.Inactive.Valid && r.Inactive.Bool && !r.Closed.Valid
}

// CleaningReport summarises the data-quality signals collected while
// cleaning one feed snapshot.
type CleaningReport struct {
	RowsRead       int            `json:"rows_read"`
	RecordsCleaned int            `json:"records_cleaned"`
	MissingDates   map[string]int `json:"missing_dates"`
	// IgnoredColumns lists header columns with no schema entry.
	IgnoredColumns []string `json:"ignored_columns,omitempty"`
	// InactiveWithoutClosure holds the certs of inactive records lacking a
	// closure date.
	InactiveWithoutClosure []int64 `json:"inactive_without_closure,omitempty"`
}

// TotalMissingDates returns the number of date repairs across all columns.
func (r CleaningReport) TotalMissingDates() int {
	total := 0
	for _, n := range r.MissingDates {
		total += n
	}
	return total
}
