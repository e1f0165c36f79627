// Package transform derives the client, campaign and economics tables from
// the harmonized raw survey table. Every rule is row-independent.
package transform

import (
	"fmt"

	h "github.com/KaramelBytes/campaign-etl/internal/harmonize"
	"github.com/KaramelBytes/campaign-etl/internal/table"
)

// Output table names, also used as file stems by the writer.
const (
	ClientTable    = "client"
	CampaignTable  = "campaign"
	EconomicsTable = "economics"
)

// Output column orders.
var (
	ClientColumns = []string{
		h.ColClientID, h.ColAge, h.ColJob, h.ColMarital, h.ColEducation,
		h.ColCreditDefault, h.ColMortgage,
	}
	CampaignColumns = []string{
		h.ColClientID, h.ColNumberContacts, h.ColContactDuration,
		h.ColPreviousCampaignContacts, h.ColPreviousOutcome, h.ColCampaignOutcome,
		"last_contact_date",
	}
	EconomicsColumns = []string{
		h.ColClientID, h.ColConsPriceIdx, h.ColEuriborThreeMonths,
	}
)

// Tables holds the three outputs, row-aligned with the raw input.
type Tables struct {
	Client    *table.Frame
	Campaign  *table.Frame
	Economics *table.Frame
}

// Named returns the tables in write order keyed by name.
func (t *Tables) Named() []NamedFrame {
	return []NamedFrame{
		{Name: ClientTable, Frame: t.Client},
		{Name: CampaignTable, Frame: t.Campaign},
		{Name: EconomicsTable, Frame: t.Economics},
	}
}

// NamedFrame pairs an output table with its name.
type NamedFrame struct {
	Name  string
	Frame *table.Frame
}

type rule func(table.Field) table.Field

func identity(v table.Field) table.Field { return v }

// Split validates the raw schema once and builds the three output tables.
// year is combined with day and month to build last_contact_date.
func Split(raw *table.Frame, year int) (*Tables, error) {
	if err := raw.Require(h.RawColumns...); err != nil {
		return nil, fmt.Errorf("raw schema: %w", err)
	}
	idx := make(map[string]int, len(raw.Header))
	for _, c := range h.RawColumns {
		idx[c] = raw.Index(c)
	}

	client := table.New(ClientColumns...)
	campaign := table.New(CampaignColumns...)
	economics := table.New(EconomicsColumns...)

	clientRules := []rule{identity, identity, CleanJob, identity, CleanEducation, YesNoFlag, YesNoFlag}
	campaignRules := []rule{identity, identity, identity, identity, SuccessFlag, YesNoFlag}

	n := raw.Len()
	client.Rows = make([][]table.Field, n)
	campaign.Rows = make([][]table.Field, n)
	economics.Rows = make([][]table.Field, n)
	for r, row := range raw.Rows {
		client.Rows[r] = apply(row, idx, ClientColumns, clientRules)

		c := apply(row, idx, CampaignColumns[:len(campaignRules)], campaignRules)
		c = append(c, ContactDate(row[idx[h.ColDay]], row[idx[h.ColMonth]], year))
		campaign.Rows[r] = c

		economics.Rows[r] = apply(row, idx, EconomicsColumns, nil)
	}
	return &Tables{Client: client, Campaign: campaign, Economics: economics}, nil
}

// apply maps cols of row through rules; a nil rules slice copies values as-is.
func apply(row []table.Field, idx map[string]int, cols []string, rules []rule) []table.Field {
	out := make([]table.Field, len(cols), len(cols)+1)
	for i, c := range cols {
		v := row[idx[c]]
		if rules != nil {
			v = rules[i](v)
		}
		out[i] = v
	}
	return out
}
