package domain

import (
	"time"

	"github.com/google/uuid"
)

// nowFunc supplies timestamps for entity creation and mutation. Package
// tests override it for deterministic clocks.
var nowFunc = func() time.Time { return time.Now().UTC() }

func newID() string { return uuid.NewString() }

// entity carries the identity and audit fields shared by every aggregate
// and sub-entity.
type entity struct {
	id        string
	createdAt time.Time
	updatedAt *time.Time
}

func newEntity() entity {
	return entity{id: newID(), createdAt: nowFunc()}
}

func (e *entity) touch() {
	t := nowFunc()
	e.updatedAt = &t
}

func (e *entity) ID() string            { return e.id }
func (e *entity) CreatedAt() time.Time  { return e.createdAt }
func (e *entity) UpdatedAt() *time.Time { return e.updatedAt }
