package exporter

import (
	"fdicbanks/pkg/contracts/domain"
)

// InstitutionHeaders are the column names of the institutions snapshot.
var InstitutionHeaders = []string{
	"cert", "fed_rssd", "name", "address", "zip",
	"state_name", "state_alpha", "city", "county", "cbsa", "msa", "csa",
	"charter_agent", "regulatory_agent", "fdic_supervisor",
	"active", "inactive", "conservatorship", "de_novo", "federal_charter",
	"insured_fdic", "insured_bif", "insured_saif", "insured_commercial", "insured_savings",
	"bank_class", "fed_district", "fdic_region", "ots_district",
	"established", "closed", "last_updated", "insured", "effective", "processed",
	"change_code_1", "change_code_2", "change_code_3", "change_code_4", "change_code_5",
	"cfpb_effective_date", "cfpb_end_date",
	"total_assets", "total_deposits",
}

// ActivityHeaders are the column names of the activity series.
var ActivityHeaders = []string{"month", "established_count", "closed_count", "net_active"}

// institutionToCSVRow converts a record to a row matching InstitutionHeaders
func institutionToCSVRow(r domain.InstitutionRecord) []string {
	return []string{
		formatInt(r.Cert),
		formatNullInt(r.FedRSSD),
		r.Name,
		r.Address,
		r.Zip,
		r.StateName,
		r.StateAlpha,
		r.City,
		r.County,
		r.CBSA,
		r.MSA,
		r.CSA,
		r.CharterAgent,
		r.RegulatoryAgent,
		r.FDICSupervisor,
		formatNullBool(r.Active),
		formatNullBool(r.Inactive),
		formatNullBool(r.Conservatorship),
		formatNullBool(r.DeNovo),
		formatNullBool(r.FederalCharter),
		formatNullBool(r.InsuredFDIC),
		formatNullBool(r.InsuredBIF),
		formatNullBool(r.InsuredSAIF),
		formatNullBool(r.InsuredCommercial),
		formatNullBool(r.InsuredSavings),
		formatNullString(r.BankClass),
		formatNullString(r.FedDistrict),
		formatNullString(r.FDICRegion),
		formatNullString(r.OTSDistrict),
		formatNullDate(r.Established),
		formatNullDate(r.Closed),
		formatNullDate(r.LastUpdated),
		formatNullDate(r.Insured),
		formatNullDate(r.Effective),
		formatNullDate(r.Processed),
		r.ChangeCodes[0],
		r.ChangeCodes[1],
		r.ChangeCodes[2],
		r.ChangeCodes[3],
		r.ChangeCodes[4],
		r.CFPBEffDate,
		r.CFPBEndDate,
		formatNullFloat(r.TotalAssets),
		formatNullFloat(r.TotalDeposits),
	}
}

// activityToCSVRow converts one month to a row matching ActivityHeaders
func activityToCSVRow(p domain.ActivityPoint) []string {
	return []string{
		p.Month.Format(DateLayout),
		formatInt(int64(p.Established)),
		formatInt(int64(p.Closed)),
		formatFloat(p.NetActive),
	}
}
