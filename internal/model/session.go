package model

import (
	"fmt"
	"time"
)

// Slot names the column/code pair a generation works on. The single-table
// views use SlotDefault; the schema editor works on two tables at once.
type Slot string

const (
	SlotDefault Slot = "default"
	SlotFirst   Slot = "first"
	SlotSecond  Slot = "second"
)

// Valid reports whether s is one of the known slots.
func (s Slot) Valid() bool {
	switch s {
	case SlotDefault, SlotFirst, SlotSecond:
		return true
	}
	return false
}

// Relationship types and directions accepted for logical relationships.
var (
	RelationshipTypes      = []string{"OneToOne", "OneToMany", "ManyToOne", "ManyToMany"}
	RelationshipDirections = []string{"Bidirectional", "Unidirectional"}
)

// LogicalRelationship is a relationship between two tables declared by hand
// in the schema editor. It is independent of foreign-key metadata.
type LogicalRelationship struct {
	FirstTable  string `json:"first_table"`
	SecondTable string `json:"second_table"`
	Type        string `json:"type"`
	Direction   string `json:"direction"`
}

// Key identifies the relationship by its table pair, "first-second".
func (r LogicalRelationship) Key() string {
	return r.FirstTable + "-" + r.SecondTable
}

// String renders the relationship the way the editor lists it.
func (r LogicalRelationship) String() string {
	return fmt.Sprintf("%s: %s (%s)", r.Key(), r.Type, r.Direction)
}

// SessionState is everything the UI keeps for one visitor.
type SessionState struct {
	ID                   string                         `json:"id"`
	CreatedAt            time.Time                      `json:"created_at"`
	LastSeen             time.Time                      `json:"last_seen"`
	Columns              map[Slot]ColumnSet             `json:"columns"`
	GeneratedCode        map[Slot]string                `json:"generated_code"`
	PendingColumns       []ColumnDef                    `json:"pending_columns"`
	LogicalRelationships map[string]LogicalRelationship `json:"logical_relationships"`
	History              []HistoryEntry                 `json:"history"`
}

// HistoryEntry is one previously generated code blob.
type HistoryEntry struct {
	ID        int64     `json:"id" db:"id"`
	Framework string    `json:"framework" db:"framework"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Text renders the entry as it is replayed in the conversation view.
func (h HistoryEntry) Text() string {
	return h.Framework + " CRUD Operation Code:\n" + h.Content
}
