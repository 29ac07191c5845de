package core

import (
	"fmt"
	"strings"
)

// Intention is what the user wants to do with the property.
type Intention string

const (
	IntentionBuy  Intention = "Comprar"
	IntentionRent Intention = "Alugar"
)

// Valid reports whether the intention is one of the known values.
func (i Intention) Valid() bool {
	return i == IntentionBuy || i == IntentionRent
}

// Budget is a price range in BRL. Min <= Max is not enforced.
type Budget struct {
	Min int64 `json:"min" mapstructure:"min"`
	Max int64 `json:"max" mapstructure:"max"`
}

// Preferences is the snapshot of the questionnaire answers used for one search.
type Preferences struct {
	Name              string    `json:"name" mapstructure:"name"`                             // How the user wants to be addressed
	Intention         Intention `json:"intention" mapstructure:"intention"`                   // Comprar or Alugar
	PropertyType      string    `json:"propertyType" mapstructure:"property_type"`            // One of PropertyTypeOptions
	OtherPropertyType string    `json:"otherPropertyType" mapstructure:"other_property_type"` // Free-text override
	Budget            Budget    `json:"budget" mapstructure:"budget"`                         // Price range in BRL
	Location          string    `json:"location" mapstructure:"location"`                     // Free text, e.g. "Pinheiros, São Paulo"
	Priorities        []string  `json:"priorities" mapstructure:"priorities"`                 // Tags from PriorityOptions
	OtherPriorities   string    `json:"otherPriorities" mapstructure:"other_priorities"`      // Free-text override
	Bedrooms          int       `json:"bedrooms" mapstructure:"bedrooms"`                     // Desired bedroom count
	Bathrooms         int       `json:"bathrooms" mapstructure:"bathrooms"`                   // Desired bathroom count
	Extras            []string  `json:"extras" mapstructure:"extras"`                         // Tags from ExtraOptions
	OtherExtras       string    `json:"otherExtras" mapstructure:"other_extras"`              // Free-text override
}

// Form catalogs offered by the questionnaire.
var (
	PropertyTypeOptions = []string{"Casa", "Apartamento", "Cobertura", "Terreno", "Studio", "Sítio/Chácara"}
	PriorityOptions     = []string{"Perto de boas escolas", "Perto do trabalho", "Bairro tranquilo", "Vida noturna agitada", "Perto de parques"}
	ExtraOptions        = []string{"Garagem", "Quintal", "Cozinha moderna", "Home office", "Piscina", "Varanda gourmet"}
)

// DefaultPreferences returns the values the questionnaire starts with.
func DefaultPreferences() Preferences {
	return Preferences{
		Intention: IntentionBuy,
		Budget:    Budget{Min: 500000, Max: 2000000},
		Location:  "São Paulo",
		Bedrooms:  3,
		Bathrooms: 2,
	}
}

// Validate checks the fields the pipeline cannot work without.
// An inverted budget range is deliberately accepted.
func (p Preferences) Validate() error {
	if !p.Intention.Valid() {
		return fmt.Errorf("invalid intention %q: expected %q or %q", p.Intention, IntentionBuy, IntentionRent)
	}
	if p.Budget.Min < 0 || p.Budget.Max < 0 {
		return fmt.Errorf("budget must be non-negative, got %d to %d", p.Budget.Min, p.Budget.Max)
	}
	if p.Bedrooms < 0 || p.Bathrooms < 0 {
		return fmt.Errorf("bedroom and bathroom counts must be non-negative")
	}
	return nil
}

// BudgetInverted reports whether Min is above Max.
func (p Preferences) BudgetInverted() bool {
	return p.Budget.Min > p.Budget.Max
}

// AllPriorities joins the selected priority tags with the free-text override.
func (p Preferences) AllPriorities() string {
	return joinNonEmpty(append(append([]string{}, p.Priorities...), p.OtherPriorities), ", ")
}

// AllExtras joins the selected extras with the free-text override.
func (p Preferences) AllExtras() string {
	return joinNonEmpty(append(append([]string{}, p.Extras...), p.OtherExtras), ", ")
}

// FullPropertyType joins the property type with its free-text override.
func (p Preferences) FullPropertyType() string {
	return joinNonEmpty([]string{p.PropertyType, p.OtherPropertyType}, " / ")
}

func joinNonEmpty(parts []string, sep string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := strings.TrimSpace(part); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, sep)
}

// PartialProperty is a generated listing before images and narrative are attached.
type PartialProperty struct {
	ID                string `json:"id"`                         // Identifier chosen by the model, not guaranteed unique
	Title             string `json:"title"`                      // Headline in Portuguese
	Address           string `json:"address"`                    // Fictional Brazilian address
	Price             int64  `json:"price"`                      // Price in BRL
	Bedrooms          int    `json:"bedrooms"`                   // Bedroom count
	Bathrooms         int    `json:"bathrooms"`                  // Bathroom count
	Area              int    `json:"sqft"`                       // Floor area in m²
	Description       string `json:"description"`                // 2-3 sentence description
	ImagePrompt       string `json:"imagePrompt"`                // English directive for the image model
	PersonalizedPitch string `json:"personalizedPitch"`          // Paragraph addressed to the user
	SuggestionReason  string `json:"suggestionReason,omitempty"` // Why an alternative was suggested
}

// IsAlternative reports whether the listing came from a similar-listings search.
func (p PartialProperty) IsAlternative() bool {
	return p.SuggestionReason != ""
}

// Property is a fully enriched listing.
type Property struct {
	PartialProperty
	ImageURLs        []string `json:"imageUrls"`        // Usually 3; may be fewer
	NeighborhoodVibe string   `json:"neighborhoodVibe"` // Never empty
}

// PricePerSquareMeter returns the price divided by the area, or 0 when the area is unknown.
func (p Property) PricePerSquareMeter() float64 {
	if p.Area <= 0 {
		return 0
	}
	return float64(p.Price) / float64(p.Area)
}

// CoverImage returns the first image reference, or "" when there is none.
func (p Property) CoverImage() string {
	if len(p.ImageURLs) == 0 {
		return ""
	}
	return p.ImageURLs[0]
}

// IDs returns the identifiers of the given properties in order.
func IDs(props []Property) []string {
	ids := make([]string, 0, len(props))
	for _, p := range props {
		ids = append(ids, p.ID)
	}
	return ids
}
