// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package classification holds the incident taxonomy shared by the response
// engine: report categories, urgency tiers, emergency escalation decisions,
// and the text normalization applied before any matching.
package classification

// Category identifies the kind of incident or question a message is about.
// Exactly one category is assigned per message.
type Category string

const (
	CategoryRobbery          Category = "robbery"
	CategoryDomesticViolence Category = "domestic_violence"
	CategoryStreetViolence   Category = "street_violence"
	CategoryEmergency        Category = "emergency"
	CategoryNarcotics        Category = "narcotics"
	CategoryAccident         Category = "accident"
	CategoryVandalism        Category = "vandalism"
	CategoryNoise            Category = "noise"
	CategoryTraffic          Category = "traffic"
	CategoryGeneralSafety    Category = "general_safety"
	CategoryAppProcess       Category = "app_process"
	CategoryUnknown          Category = "unknown"
)

// Categories lists every known category in declaration order.
// Order matters: it is the tie-break used by the classifier.
var Categories = []Category{
	CategoryRobbery,
	CategoryDomesticViolence,
	CategoryStreetViolence,
	CategoryEmergency,
	CategoryNarcotics,
	CategoryAccident,
	CategoryVandalism,
	CategoryNoise,
	CategoryTraffic,
	CategoryGeneralSafety,
	CategoryAppProcess,
	CategoryUnknown,
}

// categoryLabels maps categories to the Spanish display names used when
// filling response templates.
var categoryLabels = map[Category]string{
	CategoryRobbery:          "robo",
	CategoryDomesticViolence: "violencia doméstica",
	CategoryStreetViolence:   "violencia en la vía pública",
	CategoryEmergency:        "emergencia",
	CategoryNarcotics:        "venta o consumo de drogas",
	CategoryAccident:         "accidente",
	CategoryVandalism:        "vandalismo",
	CategoryNoise:            "ruidos molestos",
	CategoryTraffic:          "incidente de tránsito",
	CategoryGeneralSafety:    "seguridad general",
	CategoryAppProcess:       "uso de la aplicación",
	CategoryUnknown:          "consulta general",
}

// Label returns the Spanish display name for the category.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return categoryLabels[CategoryUnknown]
}

// Valid reports whether the category is one of the declared variants.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// ParseCategory converts a configuration string into a Category.
// Unrecognized values map to CategoryUnknown.
func ParseCategory(s string) Category {
	c := Category(s)
	if c.Valid() {
		return c
	}
	return CategoryUnknown
}

// UrgencyTier ranks how severe a message is. Higher values are more urgent.
// Critical is reserved for emergency escalations and is never assigned by
// the keyword classifier.
type UrgencyTier int

const (
	UrgencyLow UrgencyTier = iota
	UrgencyMedium
	UrgencyHigh
	UrgencyCritical
)

var urgencyNames = map[UrgencyTier]string{
	UrgencyLow:      "low",
	UrgencyMedium:   "medium",
	UrgencyHigh:     "high",
	UrgencyCritical: "critical",
}

// String returns the wire name of the tier.
func (u UrgencyTier) String() string {
	if name, ok := urgencyNames[u]; ok {
		return name
	}
	return "low"
}

// MarshalJSON encodes the tier as its wire name.
func (u UrgencyTier) MarshalJSON() ([]byte, error) {
	return []byte(`"` + u.String() + `"`), nil
}

// UnmarshalJSON decodes a tier from its wire name.
func (u *UrgencyTier) UnmarshalJSON(data []byte) error {
	*u = ParseUrgency(string(data))
	return nil
}

// ParseUrgency converts a configuration string into an UrgencyTier.
// Unrecognized values map to UrgencyLow, the safe floor.
func ParseUrgency(s string) UrgencyTier {
	switch trimQuotes(s) {
	case "critical":
		return UrgencyCritical
	case "high":
		return UrgencyHigh
	case "medium":
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// SuggestedAction tells the presentation layer what affordance to render
// alongside an escalated response.
type SuggestedAction string

const (
	ActionCallEmergencyServices SuggestedAction = "call_emergency_services"
	ActionContactAuthorityChat  SuggestedAction = "contact_authority_chat"
	ActionNone                  SuggestedAction = "none"
)

// EscalationDecision is the outcome of the emergency detector for a single
// message. It is computed fresh per request and never cached.
type EscalationDecision struct {
	IsEmergency     bool            `json:"is_emergency"`
	MatchedPhrase   string          `json:"matched_phrase,omitempty"`
	SuggestedAction SuggestedAction `json:"suggested_action"`
}

// Result is the classifier verdict for a normalized message.
type Result struct {
	Category   Category
	Urgency    UrgencyTier
	Confidence float64
}
