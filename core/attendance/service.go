package attendance

import (
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/shuleni/mahudhurio/core"
	"github.com/shuleni/mahudhurio/core/school"
	"github.com/shuleni/mahudhurio/core/user"
)

var (
	// errors
	ErrRecordNotFound = stderrors.New("attendance record not found")
	ErrAlreadyMarked  = stderrors.New("attendance already marked for this student on this date")
	ErrNotAuthorized  = stderrors.New("not authorized to mark attendance for this class")

	errStudentNotFound = stderrors.New("student not found")
	errWrongClass      = stderrors.New("student does not belong to this class")
)

type (
	// Store is the record store the attendance core runs against. It does not
	// guard the duplicate-check-then-write sequence; implementations must
	// either enforce key uniqueness themselves or serialize writes per key.
	Store interface {
		GetStudentByID(id string) (school.Student, error)
		GetStudentsByClass(classID string) ([]school.Student, error)
		GetClassByID(id string) (school.ClassRoom, error)
		GetSubjectByID(id string) (school.Subject, error)
		GetUserByID(id string) (user.User, error)

		GetAttendanceByID(id string) (Record, error)
		GetAttendanceByDate(date, classID string, subjectID null.String) ([]Record, error)
		GetAttendanceByClass(classID string, f Filter) ([]Record, error)
		GetAttendanceByStudent(studentID string, f Filter) ([]Record, error)
		QueryAttendance(f Filter) ([]Record, error)
		AddAttendance(rec Record) (Record, error)
		UpdateAttendance(id string, patch Patch) (Record, error)
		DeleteAttendance(id string) error
	}

	Service struct {
		store Store
	}
)

func NewService(store Store) *Service {
	return &Service{store: store}
}

// MarkSingle creates a new attendance record. Unlike the bulk path it is
// strict: an existing record for the key fails with ErrAlreadyMarked.
func (svc *Service) MarkSingle(sm SingleMark, actorID string) (Record, error) {
	if err := ValidateStatus(sm.Status); err != nil {
		return Record{}, err
	}
	if err := ValidateDate(sm.Date); err != nil {
		return Record{}, err
	}

	_, dup, err := CheckDuplicate(svc.store, sm.StudentID, sm.Date, sm.ClassID, sm.SubjectID)
	if err != nil {
		return Record{}, err
	}
	if dup {
		return Record{}, ErrAlreadyMarked
	}

	if err := svc.checkStudentInClass(sm.StudentID, sm.ClassID); err != nil {
		return Record{}, err
	}

	return svc.store.AddAttendance(svc.newRecord(sm.StudentID, sm.ClassID, sm.SubjectID, sm.Date, sm.Status, sm.Notes, actorID))
}

// MarkBulk marks a whole class for one date. The date is validated once and the
// class resolved once; each row is then processed independently with upsert
// semantics. A row failure is recorded and never aborts the remaining rows.
func (svc *Service) MarkBulk(bm BulkMark, actorID string) (BulkResult, error) {
	if err := ValidateDate(bm.Date); err != nil {
		return BulkResult{}, err
	}
	if _, err := svc.store.GetClassByID(bm.ClassID); err != nil {
		if err == school.ErrClassNotFound {
			return BulkResult{}, err
		}
		return BulkResult{}, errors.Wrap(err, "resolving class")
	}

	res := BulkResult{
		Records: make([]Record, 0, len(bm.Rows)),
		Errors:  make([]RowError, 0),
	}
	for _, row := range bm.Rows {
		rec, err := svc.markRow(bm, row, actorID)
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, RowError{StudentID: row.StudentID, Error: rowErrorMessage(err)})
			continue
		}
		res.Marked++
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

// markRow upserts one bulk row.
func (svc *Service) markRow(bm BulkMark, row BulkRow, actorID string) (Record, error) {
	if err := ValidateStatus(row.Status); err != nil {
		return Record{}, err
	}
	if err := svc.checkStudentInClass(row.StudentID, bm.ClassID); err != nil {
		return Record{}, err
	}

	existing, dup, err := CheckDuplicate(svc.store, row.StudentID, bm.Date, bm.ClassID, bm.SubjectID)
	if err != nil {
		return Record{}, err
	}
	if dup {
		status := NormalizeStatus(row.Status)
		notes := null.NewString(row.Notes, row.Notes != "")
		return svc.store.UpdateAttendance(existing.ID, Patch{
			Status:    &status,
			Notes:     &notes,
			UpdatedAt: time.Now().UTC(),
			UpdatedBy: null.StringFrom(actorID),
		})
	}
	return svc.store.AddAttendance(svc.newRecord(row.StudentID, bm.ClassID, bm.SubjectID, bm.Date, row.Status, row.Notes, actorID))
}

// Update applies a partial update to an existing record, re-validating the
// status when supplied and stamping the update metadata.
func (svc *Service) Update(id string, ur UpdateRecord, actorID string) (Record, error) {
	if _, err := svc.store.GetAttendanceByID(id); err != nil {
		return Record{}, ErrRecordNotFound
	}

	patch := Patch{
		UpdatedAt: time.Now().UTC(),
		UpdatedBy: null.StringFrom(actorID),
	}
	if ur.Status != "" {
		if err := ValidateStatus(ur.Status); err != nil {
			return Record{}, err
		}
		status := NormalizeStatus(ur.Status)
		patch.Status = &status
	}
	if ur.Notes != nil {
		notes := null.NewString(*ur.Notes, *ur.Notes != "")
		patch.Notes = &notes
	}
	return svc.store.UpdateAttendance(id, patch)
}

// Delete removes a record unconditionally. Admin gating happens at the caller.
func (svc *Service) Delete(id string) error {
	if _, err := svc.store.GetAttendanceByID(id); err != nil {
		return ErrRecordNotFound
	}
	return svc.store.DeleteAttendance(id)
}

// ClassRecords lists a class's raw records over a filter.
func (svc *Service) ClassRecords(classID string, f Filter) ([]Record, error) {
	if _, err := svc.store.GetClassByID(classID); err != nil {
		return nil, err
	}
	return svc.store.GetAttendanceByClass(classID, f)
}

// GetClass resolves a class through the store.
func (svc *Service) GetClass(id string) (school.ClassRoom, error) {
	return svc.store.GetClassByID(id)
}

// GetStudent resolves a student through the store.
func (svc *Service) GetStudent(id string) (school.Student, error) {
	return svc.store.GetStudentByID(id)
}

func (svc *Service) GetByID(id string) (Record, error) {
	rec, err := svc.store.GetAttendanceByID(id)
	if err != nil {
		return Record{}, ErrRecordNotFound
	}
	return rec, nil
}

func (svc *Service) newRecord(studentID, classID string, subjectID null.String, date, status, notes, actorID string) Record {
	now := time.Now().UTC()
	return Record{
		ID:        uuid.New().String(),
		StudentID: studentID,
		ClassID:   classID,
		SubjectID: subjectID,
		Date:      date,
		Status:    NormalizeStatus(status),
		MarkedBy:  actorID,
		MarkedAt:  now,
		Notes:     null.NewString(notes, notes != ""),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// checkStudentInClass verifies the student exists and belongs to the stated class.
func (svc *Service) checkStudentInClass(studentID, classID string) error {
	std, err := svc.store.GetStudentByID(studentID)
	if err != nil {
		if err == school.ErrStudentNotFound {
			return core.NewValidationError(errStudentNotFound)
		}
		return errors.Wrap(err, "resolving student")
	}
	if std.ClassID != classID {
		return core.NewValidationError(errWrongClass)
	}
	return nil
}

// rowErrorMessage flattens a row failure into the message reported in BulkResult.
func rowErrorMessage(err error) string {
	if vErr, ok := errors.Cause(err).(*core.ValidationError); ok {
		if msg := vErr.Error(); msg != "" {
			return msg
		}
		if len(vErr.Fields) > 0 {
			return vErr.Fields[0].Error
		}
	}
	return err.Error()
}
