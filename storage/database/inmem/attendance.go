package inmemdb

import (
	"sort"

	"github.com/volatiletech/null/v8"

	"github.com/shuleni/mahudhurio/core/attendance"
	"github.com/shuleni/mahudhurio/core/school"
	"github.com/shuleni/mahudhurio/core/user"
)

type attendanceStore struct {
	db *DB
}

func NewStore(db *DB) attendance.Store {
	return &attendanceStore{db: db}
}

// directory lookups

func (st *attendanceStore) GetStudentByID(id string) (school.Student, error) {
	st.db.mutex.RLock()
	defer st.db.mutex.RUnlock()
	return getStudentByID(st.db, id)
}

func (st *attendanceStore) GetStudentsByClass(classID string) ([]school.Student, error) {
	st.db.mutex.RLock()
	defer st.db.mutex.RUnlock()
	return getStudentsByClass(st.db, classID)
}

func (st *attendanceStore) GetClassByID(id string) (school.ClassRoom, error) {
	st.db.mutex.RLock()
	defer st.db.mutex.RUnlock()
	return getClassByID(st.db, id)
}

func (st *attendanceStore) GetSubjectByID(id string) (school.Subject, error) {
	st.db.mutex.RLock()
	defer st.db.mutex.RUnlock()
	return getSubjectByID(st.db, id)
}

func (st *attendanceStore) GetUserByID(id string) (user.User, error) {
	st.db.mutex.RLock()
	defer st.db.mutex.RUnlock()

	if usr, ok := st.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

// attendance records

func (st *attendanceStore) GetAttendanceByID(id string) (attendance.Record, error) {
	st.db.mutex.RLock()
	defer st.db.mutex.RUnlock()

	if rec, ok := st.db.attendance[id]; ok {
		return *rec, nil
	}
	return attendance.Record{}, attendance.ErrRecordNotFound
}

func (st *attendanceStore) GetAttendanceByDate(date, classID string, subjectID null.String) ([]attendance.Record, error) {
	st.db.mutex.RLock()
	defer st.db.mutex.RUnlock()

	records := make([]attendance.Record, 0)
	for _, rec := range st.db.attendance {
		// a null subject and a concrete one are distinct key spaces
		if rec.Date == date && rec.ClassID == classID && rec.SubjectID == subjectID {
			records = append(records, *rec)
		}
	}
	sortRecords(records)
	return records, nil
}

func (st *attendanceStore) GetAttendanceByClass(classID string, f attendance.Filter) ([]attendance.Record, error) {
	st.db.mutex.RLock()
	defer st.db.mutex.RUnlock()

	records := make([]attendance.Record, 0)
	for _, rec := range st.db.attendance {
		if rec.ClassID == classID && st.matches(*rec, f) {
			records = append(records, *rec)
		}
	}
	sortRecords(records)
	return records, nil
}

func (st *attendanceStore) GetAttendanceByStudent(studentID string, f attendance.Filter) ([]attendance.Record, error) {
	st.db.mutex.RLock()
	defer st.db.mutex.RUnlock()

	records := make([]attendance.Record, 0)
	for _, rec := range st.db.attendance {
		if rec.StudentID == studentID && st.matches(*rec, f) {
			records = append(records, *rec)
		}
	}
	sortRecords(records)
	return records, nil
}

func (st *attendanceStore) QueryAttendance(f attendance.Filter) ([]attendance.Record, error) {
	st.db.mutex.RLock()
	defer st.db.mutex.RUnlock()

	records := make([]attendance.Record, 0)
	for _, rec := range st.db.attendance {
		if st.matches(*rec, f) {
			records = append(records, *rec)
		}
	}
	sortRecords(records)
	return records, nil
}

func (st *attendanceStore) AddAttendance(rec attendance.Record) (attendance.Record, error) {
	st.db.mutex.Lock()
	defer st.db.mutex.Unlock()

	for _, existing := range st.db.attendance {
		if existing.StudentID == rec.StudentID && existing.Date == rec.Date &&
			existing.ClassID == rec.ClassID && existing.SubjectID == rec.SubjectID {
			return attendance.Record{}, attendance.ErrAlreadyMarked
		}
	}
	st.db.attendance[rec.ID] = &rec
	return rec, nil
}

func (st *attendanceStore) UpdateAttendance(id string, patch attendance.Patch) (attendance.Record, error) {
	st.db.mutex.Lock()
	defer st.db.mutex.Unlock()

	rec, ok := st.db.attendance[id]
	if !ok {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	if patch.Status != nil {
		rec.Status = *patch.Status
	}
	if patch.Notes != nil {
		rec.Notes = *patch.Notes
	}
	rec.UpdatedAt = patch.UpdatedAt
	rec.UpdatedBy = patch.UpdatedBy
	return *rec, nil
}

func (st *attendanceStore) DeleteAttendance(id string) error {
	st.db.mutex.Lock()
	defer st.db.mutex.Unlock()

	if _, ok := st.db.attendance[id]; !ok {
		return attendance.ErrRecordNotFound
	}
	delete(st.db.attendance, id)
	return nil
}

// matches applies AND semantics on the set Filter fields. Date bounds compare
// lexicographically, which is correct for YYYY-MM-DD. The school constraint
// resolves through the record's class, so it needs the db; callers hold the lock.
func (st *attendanceStore) matches(rec attendance.Record, f attendance.Filter) bool {
	if f.StartDate != "" && rec.Date < f.StartDate {
		return false
	}
	if f.EndDate != "" && rec.Date > f.EndDate {
		return false
	}
	if f.SubjectID != "" && rec.SubjectID.String != f.SubjectID {
		return false
	}
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	if f.SchoolID != "" {
		cls, ok := st.db.classes[rec.ClassID]
		if !ok || cls.SchoolID != f.SchoolID {
			return false
		}
	}
	return true
}

func sortRecords(records []attendance.Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date < records[j].Date
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
}
