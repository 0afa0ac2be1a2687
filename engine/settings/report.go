package settings

type Status string

const (
	StatusValid   Status = "valid"
	StatusInvalid Status = "invalid"
	StatusPending Status = "pending"
)

// ValidationStatus summarizes one category of the configuration.
type ValidationStatus struct {
	Category      Category     `json:"category"`
	Status        Status       `json:"status"`
	SettingsValid int          `json:"settingsValid"`
	SettingsTotal int          `json:"settingsTotal"`
	Errors        []FieldError `json:"errors"`
}

// Report groups errs by category for cfg. A category is pending when it has no
// errors and none of its settings hold a non-zero value.
func Report(cfg *Configuration, errs ValidationErrors) []ValidationStatus {
	out := make([]ValidationStatus, 0, len(Categories))
	for _, c := range Categories {
		leaves := FieldsIn(c)
		catErrs := errs.ForCategory(c)
		failing := map[string]bool{}
		for _, e := range catErrs {
			failing[leafOf(e.Path)] = true
		}
		st := ValidationStatus{
			Category:      c,
			SettingsTotal: len(leaves),
			SettingsValid: max(len(leaves)-len(failing), 0),
			Errors:        catErrs,
		}
		switch {
		case len(catErrs) > 0:
			st.Status = StatusInvalid
		case cfg == nil || !anyPopulated(cfg, leaves):
			st.Status = StatusPending
		default:
			st.Status = StatusValid
		}
		out = append(out, st)
	}
	return out
}

func anyPopulated(cfg *Configuration, paths []string) bool {
	for _, p := range paths {
		f, ok := LookupField(p)
		if !ok {
			continue
		}
		if !f.Value(cfg).IsZero() {
			return true
		}
	}
	return false
}

// Summary bundles the error list with the category report.
// Errors on the root path appear only in Errors.
type Summary struct {
	Valid      bool               `json:"valid"`
	Errors     ValidationErrors   `json:"errors"`
	Categories []ValidationStatus `json:"categories"`
}

// Summarize bundles the error list and category report for API responses.
func Summarize(cfg *Configuration, errs ValidationErrors) Summary {
	if errs == nil {
		errs = ValidationErrors{}
	}
	return Summary{
		Valid:      len(errs) == 0,
		Errors:     errs,
		Categories: Report(cfg, errs),
	}
}
