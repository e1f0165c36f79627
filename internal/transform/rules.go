package transform

import (
	"strings"

	"github.com/KaramelBytes/campaign-etl/internal/table"
)

var (
	flagTrue  = table.Text("1")
	flagFalse = table.Text("0")
)

// CleanJob removes every "." and turns "-" into "_".
// "admin.-services" becomes "admin_services".
func CleanJob(v table.Field) table.Field {
	if !v.Valid {
		return v
	}
	s := strings.ReplaceAll(v.Value, ".", "")
	return table.Text(strings.ReplaceAll(s, "-", "_"))
}

// CleanEducation turns "." into "_"; the literal "unknown" becomes missing.
// The comparison is case-sensitive and runs after the substitution.
func CleanEducation(v table.Field) table.Field {
	if !v.Valid {
		return v
	}
	s := strings.ReplaceAll(v.Value, ".", "_")
	if s == "unknown" {
		return table.Missing()
	}
	return table.Text(s)
}

// flag returns 1 when the lowercased value equals want, otherwise 0.
// Missing input is never equal, so it always yields 0.
func flag(v table.Field, want string) table.Field {
	if v.Valid && strings.ToLower(v.Value) == want {
		return flagTrue
	}
	return flagFalse
}

// YesNoFlag recodes credit_default, mortgage and campaign_outcome.
func YesNoFlag(v table.Field) table.Field { return flag(v, "yes") }

// SuccessFlag recodes previous_outcome.
func SuccessFlag(v table.Field) table.Field { return flag(v, "success") }
