package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgramEnrollmentCount is one row of the enrollment-by-program grouping.
type ProgramEnrollmentCount struct {
	ProgramID   primitive.ObjectID `bson:"_id" json:"programId"`
	ProgramName string             `bson:"programName" json:"programName"`
	Count       int64              `bson:"count" json:"count"`
}

type RecentEnrollment struct {
	ClientName     string    `bson:"clientName" json:"clientName"`
	ProgramName    string    `bson:"programName" json:"programName"`
	EnrollmentDate time.Time `bson:"enrollmentDate" json:"enrollmentDate"`
}

type ProgramStats struct {
	TotalPrograms      int64                    `json:"totalPrograms"`
	ActivePrograms     int64                    `json:"activePrograms"`
	RecentPrograms     int64                    `json:"recentPrograms"`
	ProgramEnrollments []ProgramEnrollmentCount `json:"programEnrollments"`
}

type PopularProgram struct {
	ProgramID primitive.ObjectID `json:"programId"`
	Program   string             `json:"program"`
	Count     int64              `json:"count"`
}

type DashboardStats struct {
	TotalClients      int64              `json:"totalClients"`
	TotalPrograms     int64              `json:"totalPrograms"`
	TotalDoctors      int64              `json:"totalDoctors"`
	RecentClients     int64              `json:"recentClients"`
	ActivePrograms    int64              `json:"activePrograms"`
	PopularPrograms   []PopularProgram   `json:"popularPrograms"`
	RecentEnrollments []RecentEnrollment `json:"recentEnrollments"`
}
