package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/shuleni/mahudhurio/core/attendance"
	"github.com/shuleni/mahudhurio/core/school"
	"github.com/shuleni/mahudhurio/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd, schoolID string,
	roles []string,
	isActive bool,
) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr := user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Username:  uname,
		Email:     email,
		SchoolID:  schoolID,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateSchool(t *testing.T, repo school.Repository, name string) school.School {
	t.Helper()

	sch, err := repo.CreateSchool(school.School{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSchool() failed: %v", err)
	}
	return sch
}

func CreateClass(t *testing.T, repo school.Repository, schoolID, name, teacherID, mode string) school.ClassRoom {
	t.Helper()

	cls, err := repo.CreateClassRoom(school.ClassRoom{
		ID:             uuid.New().String(),
		SchoolID:       schoolID,
		Name:           name,
		TeacherID:      teacherID,
		AttendanceMode: mode,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return cls
}

func CreateStudent(t *testing.T, repo school.Repository, schoolID, classID, name, enrollmentNo string) school.Student {
	t.Helper()

	std, err := repo.CreateStudent(school.Student{
		ID:           uuid.New().String(),
		SchoolID:     schoolID,
		ClassID:      classID,
		Name:         name,
		EnrollmentNo: enrollmentNo,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

func CreateSubject(t *testing.T, repo school.Repository, classID, name, teacherID string) school.Subject {
	t.Helper()

	sub, err := repo.CreateSubject(school.Subject{
		ID:        uuid.New().String(),
		ClassID:   classID,
		Name:      name,
		TeacherID: teacherID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return sub
}

// AddRecord writes a record straight to the store, bypassing the marking
// window so tests can build history at arbitrary dates.
func AddRecord(
	t *testing.T,
	store attendance.Store,
	studentID, classID string,
	subjectID null.String,
	date string,
	status attendance.Status,
	markedBy string,
) attendance.Record {
	t.Helper()

	now := time.Now().UTC()
	rec, err := store.AddAttendance(attendance.Record{
		ID:        uuid.New().String(),
		StudentID: studentID,
		ClassID:   classID,
		SubjectID: subjectID,
		Date:      date,
		Status:    status,
		MarkedBy:  markedBy,
		MarkedAt:  now,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("AddRecord() failed: %v", err)
	}
	return rec
}
