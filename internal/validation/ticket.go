package validation

import (
	"encoding/json"
	"math"
	"reflect"

	"github.com/residence-ops/residence-tickets/internal/domain"
)

var createTicketSchema = MustCompile("create ticket", `{
	"type": "object",
	"properties": {
		"title": {"type": "string"},
		"description": {"type": "string"}
	},
	"required": ["title", "description"],
	"additionalProperties": false
}`)

var updateTicketSchema = MustCompile("update ticket", `{
	"type": "object",
	"properties": {
		"title": {"type": "string"},
		"description": {"type": "string"},
		"status": {"type": "string", "enum": ["NEW", "IN_PROGRESS", "RESOLVED", "CLOSED"]},
		"assignedTo": {"type": ["string", "null"]},
		"version": {"type": "integer", "minimum": 1}
	},
	"additionalProperties": false
}`)

// CreateTicketInput is a validated ticket creation request.
type CreateTicketInput struct {
	Title       string
	Description string
}

// UpdateTicketInput is a validated partial ticket update.
type UpdateTicketInput struct {
	Title       *string
	Description *string
	Status      *domain.TicketStatus
	AssignedTo  domain.Nullable[string]
	Version     *int64
}

// Patch converts the input into a repository patch.
func (in UpdateTicketInput) Patch() domain.TicketPatch {
	return domain.TicketPatch{
		Title:           in.Title,
		Description:     in.Description,
		Status:          in.Status,
		AssignedTo:      in.AssignedTo,
		ExpectedVersion: in.Version,
	}
}

// CreateTicket validates a creation payload. Unknown keys are rejected.
func CreateTicket(payload any) (CreateTicketInput, error) {
	object, v, err := createTicketSchema.check(payload)
	if err != nil {
		return CreateTicketInput{}, err
	}

	title := v.text(object, "title", domain.TitleMaxLength)
	description := v.text(object, "description", domain.DescriptionMaxLength)
	if err := v.err(); err != nil {
		return CreateTicketInput{}, err
	}
	return CreateTicketInput{Title: *title, Description: *description}, nil
}

// UpdateTicket validates a partial update payload. An explicit null
// assignedTo clears the assignee; an omitted one leaves it unchanged.
func UpdateTicket(payload any) (UpdateTicketInput, error) {
	object, v, err := updateTicketSchema.check(payload)
	if err != nil {
		return UpdateTicketInput{}, err
	}

	var in UpdateTicketInput
	if _, present := object["title"]; present {
		in.Title = v.text(object, "title", domain.TitleMaxLength)
	}
	if _, present := object["description"]; present {
		in.Description = v.text(object, "description", domain.DescriptionMaxLength)
	}
	if raw, ok := object["status"].(string); ok {
		if status, valid := domain.ParseTicketStatus(raw); valid {
			in.Status = &status
		}
	}
	if raw, present := object["assignedTo"]; present {
		switch assignee := raw.(type) {
		case nil:
			in.AssignedTo = domain.Nullable[string]{Set: true}
		case string:
			if canonical, err := domain.ValidateID("user", assignee); err != nil {
				v.add("assignedTo", "assignedTo must be a valid user id")
			} else {
				in.AssignedTo = domain.Nullable[string]{Set: true, Value: &canonical}
			}
		}
	}
	if !v.has("version") {
		in.Version = integer(object["version"])
	}

	if err := v.err(); err != nil {
		return UpdateTicketInput{}, err
	}
	return in, nil
}

// integer reads an integral JSON number of any Go numeric representation.
func integer(raw any) *int64 {
	var value int64
	switch n := raw.(type) {
	case nil:
		return nil
	case json.Number:
		parsed, err := n.Int64()
		if err != nil {
			return nil
		}
		value = parsed
	default:
		rv := reflect.ValueOf(raw)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			value = rv.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			u := rv.Uint()
			if u > math.MaxInt64 {
				return nil
			}
			value = int64(u)
		case reflect.Float32, reflect.Float64:
			f := rv.Float()
			if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
				return nil
			}
			value = int64(f)
		default:
			return nil
		}
	}
	return &value
}
