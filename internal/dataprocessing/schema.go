package dataprocessing

import "fmt"

// ColumnKind is the explicit type a feed column is parsed as.
type ColumnKind int

const (
	// KindText keeps the raw string.
	KindText ColumnKind = iota
	// KindCategory is an open vocabulary: interned, never relabeled.
	KindCategory
	// KindLabeled is a closed vocabulary recoded through a label dictionary.
	KindLabeled
	// KindBool is a binary indicator.
	KindBool
	// KindDate is a MM/DD/YYYY date.
	KindDate
	// KindInt is an integer identifier.
	KindInt
	// KindFloat is a numeric amount.
	KindFloat
)

var kindNames = map[ColumnKind]string{
	KindText:     "text",
	KindCategory: "category",
	KindLabeled:  "labeled",
	KindBool:     "bool",
	KindDate:     "date",
	KindInt:      "int",
	KindFloat:    "float",
}

func (k ColumnKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ColumnKind(%d)", int(k))
}

// ColumnSpec pins one feed column to a kind.
type ColumnSpec struct {
	Name string
	Kind ColumnKind
	// Pinned marks columns whose kind overrides what naive inference on the
	// raw feed would pick.
	Pinned bool
}

// Schema is the fixed column-type schema of the institutions feed.
type Schema []ColumnSpec

// Lookup returns the spec for a column name.
func (s Schema) Lookup(name string) (ColumnSpec, bool) {
	for _, c := range s {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

// Pinned returns the enumerated correction list.
func (s Schema) Pinned() []ColumnSpec {
	var out []ColumnSpec
	for _, c := range s {
		if c.Pinned {
			out = append(out, c)
		}
	}
	return out
}

// Columns of special meaning to the cleaner.
const (
	ColumnCert       = "CERT"
	ColumnInactive   = "INACTIVE"
	ColumnEstablish  = "ESTYMD"
	ColumnClosure    = "ENDEFYMD"
	ColumnFDICRegion = "FDICREGN"
	ColumnFDICOffice = "FDICDBS"
)

// RequiredColumns must be present in the feed header.
var RequiredColumns = []string{ColumnCert, ColumnEstablish, ColumnClosure, ColumnInactive}

// DefaultSchema is the column-type schema of the FDIC institutions table.
//
// Pinned entries are the correction list: change codes and CFPB dates look
// numeric or date-like but are codes and sentinel-bearing strings; agency
// identifiers look like small integers; the region and district codes look
// numeric but are closed vocabularies; several status flags look like plain
// integers but only hold 0/1.
func DefaultSchema() Schema {
	return Schema{
		{Name: ColumnCert, Kind: KindInt},
		{Name: "FED_RSSD", Kind: KindInt},
		{Name: "NAME", Kind: KindText},
		{Name: "ADDRESS", Kind: KindText},
		{Name: "ZIP", Kind: KindText, Pinned: true},

		{Name: "STNAME", Kind: KindCategory},
		{Name: "STALP", Kind: KindCategory},
		{Name: "CITY", Kind: KindCategory},
		{Name: "COUNTY", Kind: KindCategory},
		{Name: "CBSA", Kind: KindCategory},
		{Name: "MSA", Kind: KindCategory, Pinned: true},
		{Name: "CSA", Kind: KindCategory, Pinned: true},
		{Name: "CHRTAGNT", Kind: KindCategory, Pinned: true},
		{Name: "REGAGNT", Kind: KindCategory, Pinned: true},
		{Name: "FDICSUPV", Kind: KindCategory},

		{Name: "ACTIVE", Kind: KindBool},
		{Name: ColumnInactive, Kind: KindBool},
		{Name: "CONSERVE", Kind: KindBool, Pinned: true},
		{Name: "DENOVO", Kind: KindBool, Pinned: true},
		{Name: "FEDCHRTR", Kind: KindBool},
		{Name: "INSFDIC", Kind: KindBool},
		{Name: "INSBIF", Kind: KindBool, Pinned: true},
		{Name: "INSSAIF", Kind: KindBool, Pinned: true},
		{Name: "INSCOML", Kind: KindBool, Pinned: true},
		{Name: "INSSAVE", Kind: KindBool, Pinned: true},

		{Name: "BKCLASS", Kind: KindLabeled},
		{Name: "FED", Kind: KindLabeled, Pinned: true},
		{Name: ColumnFDICRegion, Kind: KindLabeled, Pinned: true},
		{Name: ColumnFDICOffice, Kind: KindLabeled, Pinned: true},
		{Name: "OTSDIST", Kind: KindLabeled, Pinned: true},

		{Name: ColumnEstablish, Kind: KindDate},
		{Name: ColumnClosure, Kind: KindDate},
		{Name: "DATEUPDT", Kind: KindDate},
		{Name: "INSDATE", Kind: KindDate},
		{Name: "EFFDATE", Kind: KindDate},
		{Name: "PROCDATE", Kind: KindDate},

		{Name: "CHANGEC1", Kind: KindText, Pinned: true},
		{Name: "CHANGEC2", Kind: KindText, Pinned: true},
		{Name: "CHANGEC3", Kind: KindText, Pinned: true},
		{Name: "CHANGEC4", Kind: KindText, Pinned: true},
		{Name: "CHANGEC5", Kind: KindText, Pinned: true},
		{Name: "CFPBEFFDTE", Kind: KindText, Pinned: true},
		{Name: "CFPBENDDTE", Kind: KindText, Pinned: true},

		{Name: "ASSET", Kind: KindFloat},
		{Name: "DEP", Kind: KindFloat},
	}
}
