package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleAdmin  = "admin"
	RoleDoctor = "doctor"
)

type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	Password    string             `bson:"password" json:"-"` // bcrypt hash, never serialized
	Role        string             `bson:"role" json:"role"`  // "admin" or "doctor"
	DateCreated time.Time          `bson:"dateCreated" json:"dateCreated"`
}

// UserRef is the populated form of a User reference.
type UserRef struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"`
}
