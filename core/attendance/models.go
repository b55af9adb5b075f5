package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/shuleni/mahudhurio/core"
)

// Status classifies a student's attendance for one date.
// Every status is a terminal classification, replaceable only by an explicit update.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusExcused Status = "excused"
)

var Statuses = []Status{StatusPresent, StatusAbsent, StatusLate, StatusExcused}

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	}
	return false
}

// Risk levels derived from attendance percentage. Note the polarity: high
// attendance maps to the *lower* risk word. Consumers key off these exact tokens.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// Record is one student's attendance for one date.
// At most one Record exists per (StudentID, Date, ClassID, SubjectID) tuple;
// a null SubjectID and a concrete one are distinct keys.
type Record struct {
	ID        string      `json:"id"`
	StudentID string      `json:"student_id"`
	ClassID   string      `json:"class_id"`
	SubjectID null.String `json:"subject_id"`
	Date      string      `json:"date"` // YYYY-MM-DD
	Status    Status      `json:"status"`
	MarkedBy  string      `json:"marked_by"`
	MarkedAt  time.Time   `json:"marked_at"` // UTC
	Notes     null.String `json:"notes"`
	CreatedAt time.Time   `json:"created_at"` // UTC
	UpdatedAt time.Time   `json:"updated_at"` // UTC
	UpdatedBy null.String `json:"updated_by"`
}

// Patch defines a partial update of a Record. Nil fields are left unchanged.
type Patch struct {
	Status    *Status
	Notes     *null.String
	UpdatedAt time.Time
	UpdatedBy null.String
}

// Filter narrows attendance record queries. Zero values mean "no constraint".
// SchoolID matches through the record's class; it exists so unfiltered queries
// can stay within one school.
type Filter struct {
	StartDate string
	EndDate   string
	SubjectID string
	Status    Status
	SchoolID  string
}

// SingleMark is a request to mark one student on one date. The single-mark
// path is strict: it never updates an existing record.
type SingleMark struct {
	StudentID string      `json:"student_id" validate:"required"`
	ClassID   string      `json:"class_id" validate:"required"`
	SubjectID null.String `json:"subject_id"`
	Date      string      `json:"date" validate:"required"`
	Status    string      `json:"status" validate:"required"`
	Notes     string      `json:"notes"`
}

func (sm *SingleMark) Validate(validate *validator.Validate) error {
	sm.StudentID = core.CleanString(sm.StudentID)
	sm.ClassID = core.CleanString(sm.ClassID)
	sm.Date = core.CleanString(sm.Date)
	sm.Status = core.CleanString(sm.Status, true /* lower */)
	return validate.Struct(sm)
}

// BulkMark is a request to mark a whole class for one date. Rows are
// upserted independently; row failures never abort the batch.
type BulkMark struct {
	ClassID   string      `json:"class_id" validate:"required"`
	SubjectID null.String `json:"subject_id"`
	Date      string      `json:"date" validate:"required"`
	Rows      []BulkRow   `json:"attendance" validate:"required,min=1,dive"`
}

type BulkRow struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required"`
	Notes     string `json:"notes"`
}

func (bm *BulkMark) Validate(validate *validator.Validate) error {
	bm.ClassID = core.CleanString(bm.ClassID)
	bm.Date = core.CleanString(bm.Date)
	for i := range bm.Rows {
		bm.Rows[i].StudentID = core.CleanString(bm.Rows[i].StudentID)
		bm.Rows[i].Status = core.CleanString(bm.Rows[i].Status, true /* lower */)
	}
	return validate.Struct(bm)
}

// UpdateRecord defines what may be modified on an existing Record.
type UpdateRecord struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

// RowError captures one failed row of a bulk mark.
type RowError struct {
	StudentID string `json:"student_id"`
	Error     string `json:"error"`
}

// BulkResult is the aggregate outcome of a bulk mark: row failures are data,
// not errors, so the batch always returns a complete picture of partial success.
type BulkResult struct {
	Marked  int        `json:"marked"`
	Failed  int        `json:"failed"`
	Records []Record   `json:"records"`
	Errors  []RowError `json:"errors"`
}

// Period is an inclusive date range; empty bounds are open.
type Period struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Stats holds per-status counts over a set of records.
// Percentage counts present, late and excused as attended.
type Stats struct {
	TotalDays  int     `json:"total_days"`
	Present    int     `json:"present"`
	Absent     int     `json:"absent"`
	Late       int     `json:"late"`
	Excused    int     `json:"excused"`
	Percentage float64 `json:"percentage"`
}

// StudentStats is a per-student breakdown within class statistics.
type StudentStats struct {
	StudentID    string `json:"student_id"`
	StudentName  string `json:"student_name"`
	EnrollmentNo string `json:"enrollment_no"`
	Stats
	RiskLevel string `json:"risk_level"`
}

// ClassOverall aggregates a whole class over a period.
type ClassOverall struct {
	TotalStudents     int     `json:"total_students"`
	TotalRecords      int     `json:"total_records"`
	Present           int     `json:"present"`
	Absent            int     `json:"absent"`
	Late              int     `json:"late"`
	Excused           int     `json:"excused"`
	AverageAttendance float64 `json:"average_attendance"`
}

// ClassStats pairs the overall aggregate with the per-student breakdown,
// sorted ascending by percentage so the most at-risk students come first.
type ClassStats struct {
	Overall  ClassOverall   `json:"overall"`
	Students []StudentStats `json:"student_wise"`
}

// RosterEntry is one student's slot on a date roster. A null Status means
// "not yet marked", which is distinct from "marked absent".
type RosterEntry struct {
	StudentID    string      `json:"student_id"`
	StudentName  string      `json:"student_name"`
	EnrollmentNo string      `json:"enrollment_no"`
	Status       null.String `json:"status"`
	Notes        null.String `json:"notes"`
	MarkedAt     null.Time   `json:"marked_at"`
	RecordID     null.String `json:"attendance_id"`
}

type RosterSummary struct {
	TotalStudents int `json:"total_students"`
	Marked        int `json:"marked"`
	Unmarked      int `json:"unmarked"`
	Present       int `json:"present"`
	Absent        int `json:"absent"`
	Late          int `json:"late"`
	Excused       int `json:"excused"`
}

// Roster joins a class's full student list against the records of one date.
type Roster struct {
	Date      string        `json:"date"`
	ClassID   string        `json:"class_id"`
	SubjectID null.String   `json:"subject_id"`
	Summary   RosterSummary `json:"summary"`
	Entries   []RosterEntry `json:"attendance"`
}

// ReportFilter selects records for a report by any combination of class,
// student and date range. SchoolID is set by the caller, never bound from
// the request.
type ReportFilter struct {
	ClassID   string `query:"class_id"`
	StudentID string `query:"student_id"`
	StartDate string `query:"start_date"`
	EndDate   string `query:"end_date"`
	SubjectID string `query:"subject_id"`
	SchoolID  string `json:"-" query:"-"`
}

// ReportRow is a denormalized record row, the structure an export is built from.
// Column order: date, studentName, enrollmentNo, className, subjectName,
// status, markedBy, markedAt, notes.
type ReportRow struct {
	Date         string    `json:"date"`
	StudentName  string    `json:"student_name"`
	EnrollmentNo string    `json:"enrollment_no"`
	ClassName    string    `json:"class_name"`
	SubjectName  string    `json:"subject_name"`
	Status       Status    `json:"status"`
	MarkedBy     string    `json:"marked_by"`
	MarkedAt     time.Time `json:"marked_at"`
	Notes        string    `json:"notes"`
}

// Report flattens matching records into rows sorted by date descending.
type Report struct {
	GeneratedAt  time.Time   `json:"generated_at"`
	Period       Period      `json:"period"`
	TotalRecords int         `json:"total_records"`
	Rows         []ReportRow `json:"data"`
}

// SummaryRecord is an enriched record inside a student summary.
type SummaryRecord struct {
	ID          string      `json:"id"`
	Date        string      `json:"date"`
	Status      Status      `json:"status"`
	ClassName   string      `json:"class_name"`
	SubjectName null.String `json:"subject_name"`
	MarkedBy    string      `json:"marked_by"`
	MarkedAt    time.Time   `json:"marked_at"`
	Notes       null.String `json:"notes"`
}

// StudentRef identifies the student a summary belongs to.
type StudentRef struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	EnrollmentNo string `json:"enrollment_no"`
	ClassID      string `json:"class_id"`
}

// StudentSummary is a student's statistics plus their enriched record list,
// most recent first.
type StudentSummary struct {
	Student    StudentRef      `json:"student"`
	Period     Period          `json:"period"`
	Statistics Stats           `json:"statistics"`
	Records    []SummaryRecord `json:"records"`
}
