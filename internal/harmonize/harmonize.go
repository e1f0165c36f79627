// Package harmonize maps the header spellings produced by different survey
// exporters onto the canonical column names used downstream.
package harmonize

import "github.com/KaramelBytes/campaign-etl/internal/table"

// Canonical column names read by the transformer.
const (
	ColClientID                 = "client_id"
	ColAge                      = "age"
	ColJob                      = "job"
	ColMarital                  = "marital"
	ColEducation                = "education"
	ColCreditDefault            = "credit_default"
	ColMortgage                 = "mortgage"
	ColNumberContacts           = "number_contacts"
	ColContactDuration          = "contact_duration"
	ColPreviousCampaignContacts = "previous_campaign_contacts"
	ColPreviousOutcome          = "previous_outcome"
	ColCampaignOutcome          = "campaign_outcome"
	ColDay                      = "day"
	ColMonth                    = "month"
	ColConsPriceIdx             = "cons_price_idx"
	ColEuriborThreeMonths       = "euribor_three_months"
)

// IndexColumn is the unnamed index written by a previous dataframe export.
const IndexColumn = "Unnamed: 0"

// Aliases maps known header variants to canonical names. Identity entries are
// kept on purpose: "const_price_idx" and "cons_price_idx" must both end up as
// cons_price_idx.
var Aliases = map[string]string{
	"cons_price_idx":             ColConsPriceIdx,
	"const_price_idx":            ColConsPriceIdx,
	"euribor_three_months":       ColEuriborThreeMonths,
	"eurobor_three_months":       ColEuriborThreeMonths,
	"previous_campaing_contacts": ColPreviousCampaignContacts,
}

// RawColumns lists every column the transformer reads.
var RawColumns = []string{
	ColClientID, ColAge, ColJob, ColMarital, ColEducation, ColCreditDefault,
	ColMortgage, ColNumberContacts, ColContactDuration, ColPreviousCampaignContacts,
	ColPreviousOutcome, ColCampaignOutcome, ColDay, ColMonth, ColConsPriceIdx,
	ColEuriborThreeMonths,
}

// Canonical returns the canonical name for a header.
func Canonical(name string) string {
	if to, ok := Aliases[name]; ok {
		return to
	}
	return name
}

// Apply renames f's headers in place and returns f.
func Apply(f *table.Frame) *table.Frame {
	if f == nil {
		return nil
	}
	f.Rename(Aliases)
	return f
}
