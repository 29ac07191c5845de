package visits

import (
	"casaideal/internal/logger"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
)

// DateLayout is the format visit dates are given in.
const DateLayout = "2006-01-02"

// Slot is a visit period offered to the user
type Slot string

const (
	SlotMorning   Slot = "Manhã (9h-12h)"
	SlotAfternoon Slot = "Tarde (14h-17h)"
)

// Slots lists the bookable periods in display order
var Slots = []Slot{SlotMorning, SlotAfternoon}

// Valid reports whether s is a bookable slot
func (s Slot) Valid() bool {
	for _, slot := range Slots {
		if s == slot {
			return true
		}
	}
	return false
}

// ValidationError lists every problem found in a request
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + strings.Join(e.Problems, "; ")
}

// VisitRequest asks for a visit to a listing
type VisitRequest struct {
	PropertyID    string `json:"propertyId"`
	PropertyTitle string `json:"propertyTitle"`
	Date          string `json:"date"`
	Slot          Slot   `json:"slot"`
}

// VisitConfirmation acknowledges a scheduled visit
type VisitConfirmation struct {
	ID            string    `json:"id"`
	PropertyID    string    `json:"propertyId"`
	PropertyTitle string    `json:"propertyTitle"`
	Date          string    `json:"date"`
	Slot          Slot      `json:"slot"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"createdAt"`
}

// InfoRequest asks for more details about a listing
type InfoRequest struct {
	PropertyID    string `json:"propertyId"`
	PropertyTitle string `json:"propertyTitle"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Contact       string `json:"contact"`
}

// InfoConfirmation acknowledges an information request
type InfoConfirmation struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"propertyId"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"createdAt"`
}

var visitSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"propertyId", "propertyTitle", "date", "slot"},
	"properties": map[string]interface{}{
		"propertyId":    map[string]interface{}{"type": "string", "minLength": 1},
		"propertyTitle": map[string]interface{}{"type": "string", "minLength": 1},
		"date":          map[string]interface{}{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"slot":          map[string]interface{}{"type": "string", "enum": []interface{}{string(SlotMorning), string(SlotAfternoon)}},
	},
}

var infoSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"propertyId", "name", "email", "contact"},
	"properties": map[string]interface{}{
		"propertyId": map[string]interface{}{"type": "string", "minLength": 1},
		"name":       map[string]interface{}{"type": "string", "minLength": 1},
		"email":      map[string]interface{}{"type": "string", "format": "email"},
		"contact":    map[string]interface{}{"type": "string", "minLength": 8},
	},
}

// ScheduleVisit validates req and confirms the visit. Dates before today
// (in now's location) are rejected. Nothing is stored.
func ScheduleVisit(req VisitRequest, now time.Time) (*VisitConfirmation, error) {
	req.PropertyID = strings.TrimSpace(req.PropertyID)
	req.PropertyTitle = strings.TrimSpace(req.PropertyTitle)
	req.Date = strings.TrimSpace(req.Date)

	if err := validate(visitSchema, req); err != nil {
		return nil, err
	}

	day, err := time.ParseInLocation(DateLayout, req.Date, now.Location())
	if err != nil {
		return nil, &ValidationError{Problems: []string{fmt.Sprintf("date: %q is not a valid date", req.Date)}}
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if day.Before(today) {
		return nil, &ValidationError{Problems: []string{fmt.Sprintf("date: %s is in the past", req.Date)}}
	}

	confirmation := &VisitConfirmation{
		ID:            uuid.NewString(),
		PropertyID:    req.PropertyID,
		PropertyTitle: req.PropertyTitle,
		Date:          req.Date,
		Slot:          req.Slot,
		Message: fmt.Sprintf("Visita confirmada! Sua visita a %s está agendada para %s, no período da %s. Um de nossos especialistas entrará em contato para confirmar os detalhes.",
			req.PropertyTitle, day.Format("02/01/2006"), periodName(req.Slot)),
		CreatedAt: now,
	}

	logger.Component("visits").Info("visit scheduled",
		"confirmation_id", confirmation.ID,
		"property_id", req.PropertyID,
		"date", req.Date,
		"slot", string(req.Slot))

	return confirmation, nil
}

// RequestInfo validates req and confirms the request. Nothing is stored.
func RequestInfo(req InfoRequest, now time.Time) (*InfoConfirmation, error) {
	req.PropertyID = strings.TrimSpace(req.PropertyID)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Contact = strings.TrimSpace(req.Contact)

	if err := validate(infoSchema, req); err != nil {
		return nil, err
	}

	subject := "este imóvel"
	if title := strings.TrimSpace(req.PropertyTitle); title != "" {
		subject = title
	}

	confirmation := &InfoConfirmation{
		ID:         uuid.NewString(),
		PropertyID: req.PropertyID,
		Message:    fmt.Sprintf("Obrigado, %s! Recebemos seu pedido e enviaremos mais informações sobre %s para %s em breve.", req.Name, subject, req.Email),
		CreatedAt:  now,
	}

	// Contact details stay out of the logs.
	logger.Component("visits").Info("info requested",
		"confirmation_id", confirmation.ID,
		"property_id", req.PropertyID)

	return confirmation, nil
}

func periodName(slot Slot) string {
	if slot == SlotAfternoon {
		return "tarde (14h-17h)"
	}
	return "manhã (9h-12h)"
}

func validate(schema map[string]interface{}, data interface{}) error {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(data))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		problems := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			problems[i] = desc.String()
		}
		return &ValidationError{Problems: problems}
	}
	return nil
}
