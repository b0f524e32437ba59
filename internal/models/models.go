// package models defines the data model for collaborative playlist generation
package models

import (
	"time"
)

// Model is a record kept in local storage. [PlaylistRecord] is the only one today.
type Model interface {
	ID() string
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Validate() error // called before every insert and update
}

// Repository is the storage contract for a [Model].
//
// Delete is a soft delete: the row stays, but Get and List no longer return it.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error
	List(criteria map[string]any) ([]T, error) // newest first
}
