package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Program struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	StartDate   time.Time          `bson:"startDate" json:"startDate"`
	Active      bool               `bson:"active" json:"active"`
	CreatedBy   primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	DateCreated time.Time          `bson:"dateCreated" json:"dateCreated"`
}

// ProgramPatch carries the fields of a partial program update. Nil fields are
// left untouched.
type ProgramPatch struct {
	Name        *string
	Description *string
	StartDate   *time.Time
	Active      *bool
}

func (p ProgramPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.StartDate == nil && p.Active == nil
}

// ProgramRef is the populated form of an enrollment's program reference.
type ProgramRef struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Active      *bool              `bson:"active,omitempty" json:"active,omitempty"`
}
