package compare

import (
	"casaideal/internal/core"
	"errors"
	"fmt"
	"math"
)

const (
	// MinProperties is the smallest comparison worth showing
	MinProperties = 2
	// MaxProperties is how many properties fit side by side
	MaxProperties = 4
)

var (
	ErrTooFew    = fmt.Errorf("select at least %d properties to compare", MinProperties)
	ErrTooMany   = fmt.Errorf("at most %d properties can be compared", MaxProperties)
	ErrNotInList = errors.New("property is not part of the comparison")
)

// Row labels, in display order.
const (
	RowPrice          = "Preço"
	RowSpecs          = "Especificações"
	RowPricePerMeter  = "Preço/m²"
	RowDescription    = "Descrição"
	RowPitch          = "Para Você"
	RowNeighborhood   = "Vibrações do Bairro"
	RowAlternativeWhy = "Por que é uma alternativa"
)

// Row is one feature across every compared property
type Row struct {
	Label  string   `json:"label"`
	Values []string `json:"values"`
}

// Highlights names the standout property for a few measures. Empty when
// there is no meaningful winner (for example every area is unknown).
type Highlights struct {
	CheapestID  string `json:"cheapestId,omitempty"`
	LargestID   string `json:"largestId,omitempty"`
	BestValueID string `json:"bestValueId,omitempty"`
}

// Comparison is a side-by-side view of 2 to 4 properties
type Comparison struct {
	Properties []core.Property `json:"properties"`
	Rows       []Row           `json:"rows"`
	Highlights Highlights      `json:"highlights"`
}

// Build creates a comparison of properties in the given order
func Build(properties []core.Property) (*Comparison, error) {
	if len(properties) < MinProperties {
		return nil, ErrTooFew
	}
	if len(properties) > MaxProperties {
		return nil, ErrTooMany
	}

	props := append([]core.Property(nil), properties...)
	c := &Comparison{
		Properties: props,
		Rows: []Row{
			row(RowPrice, props, func(p core.Property) string { return core.FormatBRL(p.Price) }),
			row(RowSpecs, props, Specs),
			row(RowPricePerMeter, props, pricePerMeter),
			row(RowDescription, props, func(p core.Property) string { return p.Description }),
			row(RowPitch, props, func(p core.Property) string { return p.PersonalizedPitch }),
			row(RowNeighborhood, props, func(p core.Property) string { return p.NeighborhoodVibe }),
		},
		Highlights: highlights(props),
	}

	for _, p := range props {
		if p.IsAlternative() {
			c.Rows = append(c.Rows, row(RowAlternativeWhy, props, func(p core.Property) string { return p.SuggestionReason }))
			break
		}
	}

	return c, nil
}

// Remove returns a new comparison without the property with id
func Remove(c *Comparison, id string) (*Comparison, error) {
	kept := make([]core.Property, 0, len(c.Properties))
	for _, p := range c.Properties {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(c.Properties) {
		return nil, fmt.Errorf("%w: %s", ErrNotInList, id)
	}
	return Build(kept)
}

// Select picks the properties whose ids are listed, in the order of ids.
// Listing ids are not guaranteed unique: repeating an id picks the next
// property carrying it, in list order. Unknown ids are an error.
func Select(properties []core.Property, ids []string) ([]core.Property, error) {
	byID := make(map[string][]core.Property, len(properties))
	for _, p := range properties {
		byID[p.ID] = append(byID[p.ID], p)
	}

	used := make(map[string]int, len(ids))
	selected := make([]core.Property, 0, len(ids))
	for _, id := range ids {
		matches, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown property id %q", id)
		}
		if used[id] >= len(matches) {
			return nil, fmt.Errorf("property id %q listed more times than it appears (%d)", id, len(matches))
		}
		selected = append(selected, matches[used[id]])
		used[id]++
	}
	return selected, nil
}

// Specs renders bedroom, bathroom and area counts the way cards show them
func Specs(p core.Property) string {
	return fmt.Sprintf("%d quartos · %d banheiros · %d m²", p.Bedrooms, p.Bathrooms, p.Area)
}

func pricePerMeter(p core.Property) string {
	perMeter := p.PricePerSquareMeter()
	if perMeter == 0 {
		return "-"
	}
	return core.FormatBRL(int64(math.Round(perMeter)))
}

func row(label string, props []core.Property, render func(core.Property) string) Row {
	values := make([]string, len(props))
	for i, p := range props {
		values[i] = render(p)
	}
	return Row{Label: label, Values: values}
}

func highlights(props []core.Property) Highlights {
	var h Highlights

	cheapest, largest, bestValue := -1, -1, -1
	for i, p := range props {
		if p.Price > 0 && (cheapest < 0 || p.Price < props[cheapest].Price) {
			cheapest = i
		}
		if p.Area > 0 && (largest < 0 || p.Area > props[largest].Area) {
			largest = i
		}
		if perMeter := p.PricePerSquareMeter(); perMeter > 0 && (bestValue < 0 || perMeter < props[bestValue].PricePerSquareMeter()) {
			bestValue = i
		}
	}

	if cheapest >= 0 {
		h.CheapestID = props[cheapest].ID
	}
	if largest >= 0 {
		h.LargestID = props[largest].ID
	}
	if bestValue >= 0 {
		h.BestValueID = props[bestValue].ID
	}
	return h
}
