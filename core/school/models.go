package school

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/shuleni/mahudhurio/core"
)

// Attendance modes. Set at class creation; governs which authorization
// rule applies when marking attendance.
const (
	ModeDaily       = "daily"
	ModeSubjectWise = "subject-wise"
)

var AttendanceModes = []string{ModeDaily, ModeSubjectWise}

type School struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// ClassRoom groups students under one incharge teacher.
type ClassRoom struct {
	ID             string    `json:"id"`
	SchoolID       string    `json:"school_id"`
	Name           string    `json:"name"`
	TeacherID      string    `json:"teacher_id"` // incharge
	AttendanceMode string    `json:"attendance_mode"`
	CreatedAt      time.Time `json:"created_at"` // UTC
}

type Student struct {
	ID           string    `json:"id"`
	SchoolID     string    `json:"school_id"`
	ClassID      string    `json:"class_id"`
	Name         string    `json:"name"`
	EnrollmentNo string    `json:"enrollment_no"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

// Subject is only meaningful when the owning class runs in subject-wise mode.
type Subject struct {
	ID        string    `json:"id"`
	ClassID   string    `json:"class_id"`
	Name      string    `json:"name"`
	TeacherID string    `json:"teacher_id"` // assigned teacher
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewClassRoom contains information needed to create a new ClassRoom.
type NewClassRoom struct {
	SchoolID       string `json:"school_id" validate:"required"`
	Name           string `json:"name" validate:"required"`
	TeacherID      string `json:"teacher_id" validate:"required"`
	AttendanceMode string `json:"attendance_mode" validate:"required,attmode"`
}

func (nc *NewClassRoom) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.AttendanceMode = core.CleanString(nc.AttendanceMode, true /* lower */)
	return validate.Struct(nc)
}

// NewStudent contains information needed to enroll a new Student.
type NewStudent struct {
	SchoolID     string `json:"school_id" validate:"required"`
	ClassID      string `json:"class_id" validate:"required"`
	Name         string `json:"name" validate:"required"`
	EnrollmentNo string `json:"enrollment_no" validate:"required"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.EnrollmentNo = core.CleanString(ns.EnrollmentNo)
	return validate.Struct(ns)
}

// NewSubject contains information needed to create a new Subject.
type NewSubject struct {
	ClassID   string `json:"class_id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}
