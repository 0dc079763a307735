package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusWithdrawn = "withdrawn"
)

// ValidEnrollmentStatus reports whether s is one of the enrollment statuses.
func ValidEnrollmentStatus(s string) bool {
	switch s {
	case StatusActive, StatusCompleted, StatusWithdrawn:
		return true
	}
	return false
}

type Address struct {
	Street  string `bson:"street,omitempty" json:"street"`
	City    string `bson:"city,omitempty" json:"city"`
	State   string `bson:"state,omitempty" json:"state"`
	ZipCode string `bson:"zipCode,omitempty" json:"zipCode"`
}

// Enrollment is owned by its Client and has no identity of its own; it is
// addressed by its program reference.
type Enrollment struct {
	Program        primitive.ObjectID `bson:"program" json:"program"`
	EnrollmentDate time.Time          `bson:"enrollmentDate" json:"enrollmentDate"`
	Status         string             `bson:"status" json:"status"`
}

type Client struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName      string             `bson:"firstName" json:"firstName"`
	LastName       string             `bson:"lastName" json:"lastName"`
	DateOfBirth    time.Time          `bson:"dateOfBirth" json:"dateOfBirth"`
	Gender         string             `bson:"gender" json:"gender"`
	ContactNumber  string             `bson:"contactNumber,omitempty" json:"contactNumber"`
	Address        Address            `bson:"address" json:"address"`
	Enrollments    []Enrollment       `bson:"enrollments" json:"enrollments"`
	RegisteredBy   primitive.ObjectID `bson:"registeredBy,omitempty" json:"registeredBy,omitempty"`
	DateRegistered time.Time          `bson:"dateRegistered" json:"dateRegistered"`
}

// FindEnrollment returns the index of the first enrollment in programID, or -1.
func (c *Client) FindEnrollment(programID primitive.ObjectID) int {
	for i, e := range c.Enrollments {
		if e.Program == programID {
			return i
		}
	}
	return -1
}

// ClientPatch carries the profile fields of a partial client update.
type ClientPatch struct {
	FirstName     *string
	LastName      *string
	DateOfBirth   *time.Time
	Gender        *string
	ContactNumber *string
	Address       *Address
}

func (p ClientPatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.DateOfBirth == nil &&
		p.Gender == nil && p.ContactNumber == nil && p.Address == nil
}

// ClientFilter selects clients by a case-insensitive substring of first name,
// last name or contact number. An empty Term matches everything.
type ClientFilter struct {
	Term  string
	Skip  int64
	Limit int64
}

// EnrollmentView is an enrollment with its program populated.
type EnrollmentView struct {
	Program        ProgramRef `json:"program"`
	EnrollmentDate time.Time  `json:"enrollmentDate"`
	Status         string     `json:"status"`
}

// ClientDetail is a client with its references populated, as returned by the
// authenticated client endpoints.
type ClientDetail struct {
	ID             primitive.ObjectID `json:"id"`
	FirstName      string             `json:"firstName"`
	LastName       string             `json:"lastName"`
	DateOfBirth    time.Time          `json:"dateOfBirth"`
	Gender         string             `json:"gender"`
	ContactNumber  string             `json:"contactNumber"`
	Address        Address            `json:"address"`
	Enrollments    []EnrollmentView   `json:"enrollments"`
	RegisteredBy   *UserRef           `json:"registeredBy,omitempty"`
	DateRegistered time.Time          `json:"dateRegistered"`
}

// PublicProgram is the public view of one enrollment.
type PublicProgram struct {
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Status         string    `json:"status"`
	EnrollmentDate time.Time `json:"enrollmentDate"`
}

// PublicProfile is the unauthenticated projection of a client. It must only
// ever hold these fields: no contact details, address or registrar.
type PublicProfile struct {
	ID        primitive.ObjectID `json:"id"`
	FirstName string             `json:"firstName"`
	LastName  string             `json:"lastName"`
	Gender    string             `json:"gender"`
	Age       Age                `json:"age"`
	Programs  []PublicProgram    `json:"programs"`
}
