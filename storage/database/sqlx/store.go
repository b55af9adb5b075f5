package sqlxrepos

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/shuleni/mahudhurio/core/attendance"
	"github.com/shuleni/mahudhurio/core/school"
	"github.com/shuleni/mahudhurio/core/user"
)

const pqUniqueViolation = "23505"

// recordColumns selects attendance rows with the date rendered back to YYYY-MM-DD.
const recordColumns = `id, student_id, class_id, subject_id, to_char(date, 'YYYY-MM-DD') AS date,
	status, marked_by, marked_at, notes, created_at, updated_at, updated_by`

type attendanceStore struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) attendance.Store {
	return &attendanceStore{db: db}
}

type recordRow struct {
	ID        string      `db:"id"`
	StudentID string      `db:"student_id"`
	ClassID   string      `db:"class_id"`
	SubjectID null.String `db:"subject_id"`
	Date      string      `db:"date"`
	Status    string      `db:"status"`
	MarkedBy  string      `db:"marked_by"`
	MarkedAt  time.Time   `db:"marked_at"`
	Notes     null.String `db:"notes"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
	UpdatedBy null.String `db:"updated_by"`
}

func (r recordRow) toRecord() attendance.Record {
	return attendance.Record{
		ID:        r.ID,
		StudentID: r.StudentID,
		ClassID:   r.ClassID,
		SubjectID: r.SubjectID,
		Date:      r.Date,
		Status:    attendance.Status(r.Status),
		MarkedBy:  r.MarkedBy,
		MarkedAt:  r.MarkedAt,
		Notes:     r.Notes,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		UpdatedBy: r.UpdatedBy,
	}
}

func toRecords(rows []recordRow) []attendance.Record {
	records := make([]attendance.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.toRecord())
	}
	return records
}

// directory lookups, shared with the school repository

func (st *attendanceStore) GetStudentByID(id string) (school.Student, error) {
	return getStudentByID(st.db, id)
}

func (st *attendanceStore) GetStudentsByClass(classID string) ([]school.Student, error) {
	return getStudentsByClass(st.db, classID)
}

func (st *attendanceStore) GetClassByID(id string) (school.ClassRoom, error) {
	return getClassByID(st.db, id)
}

func (st *attendanceStore) GetSubjectByID(id string) (school.Subject, error) {
	return getSubjectByID(st.db, id)
}

func (st *attendanceStore) GetUserByID(id string) (user.User, error) {
	return getUserByID(st.db, id)
}

func getStudentByID(db *sqlx.DB, id string) (school.Student, error) {
	var std school.Student
	err := db.QueryRowx(
		`SELECT id, school_id, class_id, name, enrollment_no, created_at FROM student WHERE id = $1`, id,
	).Scan(&std.ID, &std.SchoolID, &std.ClassID, &std.Name, &std.EnrollmentNo, &std.CreatedAt)
	if err == sql.ErrNoRows {
		return school.Student{}, school.ErrStudentNotFound
	}
	return std, errors.Wrap(err, "getting student")
}

func getStudentsByClass(db *sqlx.DB, classID string) ([]school.Student, error) {
	rows, err := db.Queryx(
		`SELECT id, school_id, class_id, name, enrollment_no, created_at
		 FROM student WHERE class_id = $1 ORDER BY enrollment_no`, classID)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	defer func() { _ = rows.Close() }()

	students := make([]school.Student, 0)
	for rows.Next() {
		var std school.Student
		if err = rows.Scan(&std.ID, &std.SchoolID, &std.ClassID, &std.Name, &std.EnrollmentNo, &std.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning student")
		}
		students = append(students, std)
	}
	return students, errors.Wrap(rows.Err(), "querying students")
}

func getClassByID(db *sqlx.DB, id string) (school.ClassRoom, error) {
	var cls school.ClassRoom
	err := db.QueryRowx(
		`SELECT id, school_id, name, teacher_id, attendance_mode, created_at FROM class_room WHERE id = $1`, id,
	).Scan(&cls.ID, &cls.SchoolID, &cls.Name, &cls.TeacherID, &cls.AttendanceMode, &cls.CreatedAt)
	if err == sql.ErrNoRows {
		return school.ClassRoom{}, school.ErrClassNotFound
	}
	return cls, errors.Wrap(err, "getting class")
}

func getSubjectByID(db *sqlx.DB, id string) (school.Subject, error) {
	var sub school.Subject
	err := db.QueryRowx(
		`SELECT id, class_id, name, teacher_id, created_at FROM subject WHERE id = $1`, id,
	).Scan(&sub.ID, &sub.ClassID, &sub.Name, &sub.TeacherID, &sub.CreatedAt)
	if err == sql.ErrNoRows {
		return school.Subject{}, school.ErrSubjectNotFound
	}
	return sub, errors.Wrap(err, "getting subject")
}

// attendance records

func (st *attendanceStore) GetAttendanceByID(id string) (attendance.Record, error) {
	var row recordRow
	err := st.db.Get(&row, `SELECT `+recordColumns+` FROM attendance_record WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "getting attendance record")
	}
	return row.toRecord(), nil
}

func (st *attendanceStore) GetAttendanceByDate(date, classID string, subjectID null.String) ([]attendance.Record, error) {
	// a null subject and a concrete one are distinct key spaces
	query := `SELECT ` + recordColumns + ` FROM attendance_record
		WHERE date = $1 AND class_id = $2 AND subject_id IS NULL ORDER BY created_at`
	args := []interface{}{date, classID}
	if subjectID.Valid {
		query = `SELECT ` + recordColumns + ` FROM attendance_record
			WHERE date = $1 AND class_id = $2 AND subject_id = $3 ORDER BY created_at`
		args = append(args, subjectID.String)
	}

	var rows []recordRow
	if err := st.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance by date")
	}
	return toRecords(rows), nil
}

func (st *attendanceStore) GetAttendanceByClass(classID string, f attendance.Filter) ([]attendance.Record, error) {
	query, args := filteredQuery("class_id = $1", classID, f)
	var rows []recordRow
	if err := st.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance by class")
	}
	return toRecords(rows), nil
}

func (st *attendanceStore) GetAttendanceByStudent(studentID string, f attendance.Filter) ([]attendance.Record, error) {
	query, args := filteredQuery("student_id = $1", studentID, f)
	var rows []recordRow
	if err := st.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance by student")
	}
	return toRecords(rows), nil
}

func (st *attendanceStore) QueryAttendance(f attendance.Filter) ([]attendance.Record, error) {
	query, args := filteredQuery("1 = $1", 1, f)
	var rows []recordRow
	if err := st.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	return toRecords(rows), nil
}

func (st *attendanceStore) AddAttendance(rec attendance.Record) (attendance.Record, error) {
	_, err := st.db.Exec(
		`INSERT INTO attendance_record
			(id, student_id, class_id, subject_id, date, status, marked_by, marked_at, notes, created_at, updated_at, updated_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rec.ID, rec.StudentID, rec.ClassID, rec.SubjectID, rec.Date, string(rec.Status),
		rec.MarkedBy, rec.MarkedAt, rec.Notes, rec.CreatedAt, rec.UpdatedAt, rec.UpdatedBy,
	)
	if err != nil {
		// the unique key index turns a lost duplicate-check race into a clean error
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return attendance.Record{}, attendance.ErrAlreadyMarked
		}
		return attendance.Record{}, errors.Wrap(err, "inserting attendance record")
	}
	return rec, nil
}

func (st *attendanceStore) UpdateAttendance(id string, patch attendance.Patch) (attendance.Record, error) {
	query := `UPDATE attendance_record SET updated_at = $2, updated_by = $3`
	args := []interface{}{id, patch.UpdatedAt, patch.UpdatedBy}
	if patch.Status != nil {
		args = append(args, string(*patch.Status))
		query += `, status = $4`
		if patch.Notes != nil {
			args = append(args, *patch.Notes)
			query += `, notes = $5`
		}
	} else if patch.Notes != nil {
		args = append(args, *patch.Notes)
		query += `, notes = $4`
	}
	query += ` WHERE id = $1`

	res, err := st.db.Exec(query, args...)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "updating attendance record")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	return st.GetAttendanceByID(id)
}

func (st *attendanceStore) DeleteAttendance(id string) error {
	res, err := st.db.Exec(`DELETE FROM attendance_record WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting attendance record")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return attendance.ErrRecordNotFound
	}
	return nil
}

// filteredQuery builds a record query from a base predicate plus the set
// Filter fields, AND-ed together.
func filteredQuery(basePred string, baseArg interface{}, f attendance.Filter) (string, []interface{}) {
	query := `SELECT ` + recordColumns + ` FROM attendance_record WHERE ` + basePred
	args := []interface{}{baseArg}

	next := func() string { return fmt.Sprintf("$%d", len(args)+1) }
	if f.StartDate != "" {
		query += ` AND date >= ` + next()
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		query += ` AND date <= ` + next()
		args = append(args, f.EndDate)
	}
	if f.SubjectID != "" {
		query += ` AND subject_id = ` + next()
		args = append(args, f.SubjectID)
	}
	if f.Status != "" {
		query += ` AND status = ` + next()
		args = append(args, string(f.Status))
	}
	if f.SchoolID != "" {
		query += ` AND class_id IN (SELECT id FROM class_room WHERE school_id = ` + next() + `)`
		args = append(args, f.SchoolID)
	}
	query += ` ORDER BY date, created_at`
	return query, args
}
