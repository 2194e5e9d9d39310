package dataprocessing

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"fdicbanks/internal/config"
	apperrors "fdicbanks/internal/errors"
	"fdicbanks/pkg/contracts/domain"
)

// ErrMissingDate marks a date cell that did not parse under the feed
// layout. The field is left missing and the load continues.
var ErrMissingDate = errors.New("unparseable date")

// WorkingRecord is the loader's mutable copy of one row: the typed record
// plus columns that are read and verified but never published.
type WorkingRecord struct {
	domain.InstitutionRecord

	// FDICOffice is the recoded FDICDBS column, compared against FDICRegion
	// and then dropped.
	FDICOffice sql.NullString
}

// RowContext identifies the row a transform is applied to.
type RowContext struct {
	// Line is the 1-based data row number (header excluded).
	Line int
	Cert int64
}

// ColumnTransform converts one raw cell into a typed field of the record.
type ColumnTransform interface {
	Column() string
	Apply(raw string, row RowContext, rec *WorkingRecord) error
}

type textColumn struct {
	name string
	set  func(*WorkingRecord, string)
}

func (c textColumn) Column() string { return c.name }

func (c textColumn) Apply(raw string, _ RowContext, rec *WorkingRecord) error {
	c.set(rec, strings.TrimSpace(raw))
	return nil
}

// categoryPool interns open-vocabulary values so repeated place names and
// agency codes share one backing string.
type categoryPool struct {
	values map[string]string
}

func newCategoryPool() *categoryPool {
	return &categoryPool{values: make(map[string]string)}
}

func (p *categoryPool) intern(s string) string {
	if v, ok := p.values[s]; ok {
		return v
	}
	p.values[s] = s
	return s
}

// Size returns the number of distinct values seen.
func (p *categoryPool) Size() int { return len(p.values) }

type categoryColumn struct {
	name string
	pool *categoryPool
	set  func(*WorkingRecord, string)
}

func (c categoryColumn) Column() string { return c.name }

func (c categoryColumn) Apply(raw string, _ RowContext, rec *WorkingRecord) error {
	v := strings.TrimSpace(raw)
	if v == "" {
		c.set(rec, "")
		return nil
	}
	c.set(rec, c.pool.intern(v))
	return nil
}

type boolColumn struct {
	name string
	set  func(*WorkingRecord, sql.NullBool)
}

func (c boolColumn) Column() string { return c.name }

func (c boolColumn) Apply(raw string, row RowContext, rec *WorkingRecord) error {
	v, err := parseIndicator(raw)
	if err != nil {
		return apperrors.NewTypeCoercionFailure(c.name, row.Cert, raw)
	}
	c.set(rec, v)
	return nil
}

// parseIndicator accepts 0/1 and their string equivalents; blank is missing.
func parseIndicator(raw string) (sql.NullBool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return sql.NullBool{}, nil
	case "1", "1.0", "true":
		return sql.NullBool{Bool: true, Valid: true}, nil
	case "0", "0.0", "false":
		return sql.NullBool{Bool: false, Valid: true}, nil
	default:
		return sql.NullBool{}, fmt.Errorf("not a binary indicator: %q", raw)
	}
}

type labeledColumn struct {
	name   string
	labels config.CategoryLabelMap
	set    func(*WorkingRecord, sql.NullString)
}

func (c labeledColumn) Column() string { return c.name }

func (c labeledColumn) Apply(raw string, _ RowContext, rec *WorkingRecord) error {
	code := canonicalCode(raw)
	if code == "" {
		c.set(rec, sql.NullString{})
		return nil
	}
	label, ok := c.labels.Label(code)
	if !ok {
		return apperrors.NewSchemaViolation(c.name, code)
	}
	c.set(rec, sql.NullString{String: label, Valid: true})
	return nil
}

// canonicalCode trims a code and strips the zero padding and float suffix
// numeric codes pick up in spreadsheets ("02" and "2.0" become "2").
func canonicalCode(raw string) string {
	code := strings.TrimSpace(raw)
	if code == "" {
		return ""
	}
	// Codes past the exact integer range of a float64 are kept as delivered.
	if f, err := strconv.ParseFloat(code, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10)
	}
	return code
}

type dateColumn struct {
	name   string
	layout string
	set    func(*WorkingRecord, sql.NullTime)
}

func (c dateColumn) Column() string { return c.name }

func (c dateColumn) Apply(raw string, _ RowContext, rec *WorkingRecord) error {
	v := strings.TrimSpace(raw)
	if v == "" {
		c.set(rec, sql.NullTime{})
		return nil
	}
	t, err := time.ParseInLocation(c.layout, v, time.UTC)
	if err != nil {
		c.set(rec, sql.NullTime{})
		return fmt.Errorf("%w: column %s value %q", ErrMissingDate, c.name, v)
	}
	c.set(rec, sql.NullTime{Time: t, Valid: true})
	return nil
}

type intColumn struct {
	name string
	set  func(*WorkingRecord, sql.NullInt64)
}

func (c intColumn) Column() string { return c.name }

func (c intColumn) Apply(raw string, row RowContext, rec *WorkingRecord) error {
	v := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if v == "" {
		c.set(rec, sql.NullInt64{})
		return nil
	}
	n, err := parseInt(v)
	if err != nil {
		return apperrors.NewTypeCoercionFailure(c.name, row.Cert, raw)
	}
	c.set(rec, sql.NullInt64{Int64: n, Valid: true})
	return nil
}

func parseInt(v string) (int64, error) {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %q", v)
	}
	return int64(f), nil
}

type floatColumn struct {
	name string
	set  func(*WorkingRecord, sql.NullFloat64)
}

func (c floatColumn) Column() string { return c.name }

func (c floatColumn) Apply(raw string, row RowContext, rec *WorkingRecord) error {
	v := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if v == "" {
		c.set(rec, sql.NullFloat64{})
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return apperrors.NewTypeCoercionFailure(c.name, row.Cert, raw)
	}
	c.set(rec, sql.NullFloat64{Float64: f, Valid: true})
	return nil
}

// Field bindings: which record field each schema column writes to.

var textFields = map[string]func(*WorkingRecord, string){
	"NAME":       func(r *WorkingRecord, v string) { r.Name = v },
	"ADDRESS":    func(r *WorkingRecord, v string) { r.Address = v },
	"ZIP":        func(r *WorkingRecord, v string) { r.Zip = v },
	"CHANGEC1":   func(r *WorkingRecord, v string) { r.ChangeCodes[0] = v },
	"CHANGEC2":   func(r *WorkingRecord, v string) { r.ChangeCodes[1] = v },
	"CHANGEC3":   func(r *WorkingRecord, v string) { r.ChangeCodes[2] = v },
	"CHANGEC4":   func(r *WorkingRecord, v string) { r.ChangeCodes[3] = v },
	"CHANGEC5":   func(r *WorkingRecord, v string) { r.ChangeCodes[4] = v },
	"CFPBEFFDTE": func(r *WorkingRecord, v string) { r.CFPBEffDate = v },
	"CFPBENDDTE": func(r *WorkingRecord, v string) { r.CFPBEndDate = v },
}

var categoryFields = map[string]func(*WorkingRecord, string){
	"STNAME":   func(r *WorkingRecord, v string) { r.StateName = v },
	"STALP":    func(r *WorkingRecord, v string) { r.StateAlpha = v },
	"CITY":     func(r *WorkingRecord, v string) { r.City = v },
	"COUNTY":   func(r *WorkingRecord, v string) { r.County = v },
	"CBSA":     func(r *WorkingRecord, v string) { r.CBSA = v },
	"MSA":      func(r *WorkingRecord, v string) { r.MSA = v },
	"CSA":      func(r *WorkingRecord, v string) { r.CSA = v },
	"CHRTAGNT": func(r *WorkingRecord, v string) { r.CharterAgent = v },
	"REGAGNT":  func(r *WorkingRecord, v string) { r.RegulatoryAgent = v },
	"FDICSUPV": func(r *WorkingRecord, v string) { r.FDICSupervisor = v },
}

var boolFields = map[string]func(*WorkingRecord, sql.NullBool){
	"ACTIVE":       func(r *WorkingRecord, v sql.NullBool) { r.Active = v },
	ColumnInactive: func(r *WorkingRecord, v sql.NullBool) { r.Inactive = v },
	"CONSERVE":     func(r *WorkingRecord, v sql.NullBool) { r.Conservatorship = v },
	"DENOVO":       func(r *WorkingRecord, v sql.NullBool) { r.DeNovo = v },
	"FEDCHRTR":     func(r *WorkingRecord, v sql.NullBool) { r.FederalCharter = v },
	"INSFDIC":      func(r *WorkingRecord, v sql.NullBool) { r.InsuredFDIC = v },
	"INSBIF":       func(r *WorkingRecord, v sql.NullBool) { r.InsuredBIF = v },
	"INSSAIF":      func(r *WorkingRecord, v sql.NullBool) { r.InsuredSAIF = v },
	"INSCOML":      func(r *WorkingRecord, v sql.NullBool) { r.InsuredCommercial = v },
	"INSSAVE":      func(r *WorkingRecord, v sql.NullBool) { r.InsuredSavings = v },
}

var labeledFields = map[string]func(*WorkingRecord, sql.NullString){
	"BKCLASS":        func(r *WorkingRecord, v sql.NullString) { r.BankClass = v },
	"FED":            func(r *WorkingRecord, v sql.NullString) { r.FedDistrict = v },
	ColumnFDICRegion: func(r *WorkingRecord, v sql.NullString) { r.FDICRegion = v },
	ColumnFDICOffice: func(r *WorkingRecord, v sql.NullString) { r.FDICOffice = v },
	"OTSDIST":        func(r *WorkingRecord, v sql.NullString) { r.OTSDistrict = v },
}

var dateFields = map[string]func(*WorkingRecord, sql.NullTime){
	ColumnEstablish: func(r *WorkingRecord, v sql.NullTime) { r.Established = v },
	ColumnClosure:   func(r *WorkingRecord, v sql.NullTime) { r.Closed = v },
	"DATEUPDT":      func(r *WorkingRecord, v sql.NullTime) { r.LastUpdated = v },
	"INSDATE":       func(r *WorkingRecord, v sql.NullTime) { r.Insured = v },
	"EFFDATE":       func(r *WorkingRecord, v sql.NullTime) { r.Effective = v },
	"PROCDATE":      func(r *WorkingRecord, v sql.NullTime) { r.Processed = v },
}

var intFields = map[string]func(*WorkingRecord, sql.NullInt64){
	"FED_RSSD": func(r *WorkingRecord, v sql.NullInt64) { r.FedRSSD = v },
}

var floatFields = map[string]func(*WorkingRecord, sql.NullFloat64){
	"ASSET": func(r *WorkingRecord, v sql.NullFloat64) { r.TotalAssets = v },
	"DEP":   func(r *WorkingRecord, v sql.NullFloat64) { r.TotalDeposits = v },
}

// newTransform builds the transform for a schema column.
func newTransform(spec ColumnSpec, labels *config.LabelTable, layout string, pool *categoryPool) (ColumnTransform, error) {
	var (
		t     ColumnTransform
		bound bool
	)

	switch spec.Kind {
	case KindText:
		set, ok := textFields[spec.Name]
		t, bound = textColumn{name: spec.Name, set: set}, ok
	case KindCategory:
		set, ok := categoryFields[spec.Name]
		t, bound = categoryColumn{name: spec.Name, pool: pool, set: set}, ok
	case KindBool:
		set, ok := boolFields[spec.Name]
		t, bound = boolColumn{name: spec.Name, set: set}, ok
	case KindLabeled:
		set, ok := labeledFields[spec.Name]
		if !ok {
			break
		}
		m, found := labels.ForColumn(spec.Name)
		if !found {
			return nil, apperrors.NewConfigError(fmt.Sprintf("no label dictionary bound to column %s", spec.Name), nil)
		}
		t, bound = labeledColumn{name: spec.Name, labels: m, set: set}, true
	case KindDate:
		set, ok := dateFields[spec.Name]
		t, bound = dateColumn{name: spec.Name, layout: layout, set: set}, ok
	case KindInt:
		set, ok := intFields[spec.Name]
		t, bound = intColumn{name: spec.Name, set: set}, ok
	case KindFloat:
		set, ok := floatFields[spec.Name]
		t, bound = floatColumn{name: spec.Name, set: set}, ok
	}

	if !bound {
		return nil, apperrors.NewConfigError(fmt.Sprintf("column %s (%s) is not bound to a record field", spec.Name, spec.Kind), nil)
	}
	return t, nil
}
