package activity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Details is the structured payload attached to an entry. It is stored as
// JSON text.
type Details map[string]interface{}

// EntityDetails builds the payload written for an entity mutation.
func EntityDetails(entity string, id uuid.UUID, description string) Details {
	return Details{
		"entity":      entity,
		"entity_id":   id.String(),
		"description": description,
	}
}

// Entry maps to the activity_logs table.
type Entry struct {
	ID        int64     `db:"id" json:"id"`
	Action    string    `db:"action" json:"action"`
	Details   *string   `db:"details" json:"details,omitempty"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DecodedDetails parses the stored details text. A nil map is returned when
// the entry has no details.
func (e *Entry) DecodedDetails() (Details, error) {
	if e.Details == nil {
		return nil, nil
	}
	var d Details
	if err := json.Unmarshal([]byte(*e.Details), &d); err != nil {
		return nil, err
	}
	return d, nil
}

// View is the API representation of an entry with details decoded.
type View struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	Details   Details   `json:"details,omitempty"`
	UserID    *string   `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ToView decodes the entry for presentation. Undecodable details are exposed
// under the "raw" key.
func (e *Entry) ToView() View {
	v := View{ID: e.ID, Action: e.Action, UserID: e.UserID, CreatedAt: e.CreatedAt}
	d, err := e.DecodedDetails()
	if err != nil {
		d = Details{"raw": *e.Details}
	}
	v.Details = d
	return v
}
