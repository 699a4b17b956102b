package application

import (
	"strings"

	"printflow-core-monday-layer/internal/domain"
)

// LabelConfig maps between system statuses and Monday status column labels.
// Labels are free-text board values and differ per deployment, so the mapping
// is configuration rather than code. The defaults match the production boards,
// which carry bilingual English/Arabic labels.
type LabelConfig struct {
	// Outbound maps a system status to the label written to Monday.
	Outbound map[domain.Status]string
	// Inbound maps a normalized (trimmed, lowercased) Monday label back to a
	// system status. It includes bilingual variants and bare-English fallbacks.
	Inbound map[string]domain.Status
}

// DefaultLabelConfig returns the standard bilingual mapping.
func DefaultLabelConfig() LabelConfig {
	return LabelConfig{
		Outbound: map[domain.Status]string{
			domain.StatusPendingDesign:     "new",
			domain.StatusPendingProduction: "working on it",
			domain.StatusInProduction:      "working on it",
			domain.StatusCompleted:         "done",
		},
		Inbound: map[string]domain.Status{
			"new جديد":                 domain.StatusPendingDesign,
			"working on it اشتغل عليه": domain.StatusInProduction,
			"done تم":                  domain.StatusCompleted,
			"stuck متوقف":              domain.StatusPendingProduction,
			"new":                      domain.StatusPendingDesign,
			"working on it":            domain.StatusInProduction,
			"done":                     domain.StatusCompleted,
			"stuck":                    domain.StatusPendingProduction,
		},
	}
}

// LabelFor returns the Monday label for a system status.
func (c LabelConfig) LabelFor(status domain.Status) string {
	if label, ok := c.Outbound[status]; ok {
		return label
	}
	return "new"
}

// NormalizeLabel trims and lowercases a raw Monday label.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// StatusFor resolves a raw Monday label to a system status.
func (c LabelConfig) StatusFor(label string) (domain.Status, bool) {
	status, ok := c.Inbound[NormalizeLabel(label)]
	return status, ok
}
