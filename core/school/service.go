package school

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// errors
	ErrSchoolNotFound  = errors.New("school not found")
	ErrClassNotFound   = errors.New("class not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrSubjectNotFound = errors.New("subject not found")
)

type (
	Repository interface {
		CreateSchool(sch School) (School, error)
		CreateClassRoom(cls ClassRoom) (ClassRoom, error)
		CreateStudent(std Student) (Student, error)
		CreateSubject(sub Subject) (Subject, error)
		GetSchoolByID(id string) (School, error)
		GetClassByID(id string) (ClassRoom, error)
		GetStudentByID(id string) (Student, error)
		GetSubjectByID(id string) (Subject, error)
		GetStudentsByClass(classID string) ([]Student, error)
		GetSubjectsByClass(classID string) ([]Subject, error)
		QueryClassesBySchool(schoolID string) ([]ClassRoom, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CreateSchool(name string) (School, error) {
	return svc.repo.CreateSchool(School{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) CreateClassRoom(nc NewClassRoom) (ClassRoom, error) {
	if _, err := svc.repo.GetSchoolByID(nc.SchoolID); err != nil {
		return ClassRoom{}, err
	}
	return svc.repo.CreateClassRoom(ClassRoom{
		ID:             uuid.New().String(),
		SchoolID:       nc.SchoolID,
		Name:           nc.Name,
		TeacherID:      nc.TeacherID,
		AttendanceMode: nc.AttendanceMode,
		CreatedAt:      time.Now().UTC(),
	})
}

func (svc *Service) CreateStudent(ns NewStudent) (Student, error) {
	if _, err := svc.repo.GetClassByID(ns.ClassID); err != nil {
		return Student{}, err
	}
	return svc.repo.CreateStudent(Student{
		ID:           uuid.New().String(),
		SchoolID:     ns.SchoolID,
		ClassID:      ns.ClassID,
		Name:         ns.Name,
		EnrollmentNo: ns.EnrollmentNo,
		CreatedAt:    time.Now().UTC(),
	})
}

func (svc *Service) CreateSubject(ns NewSubject) (Subject, error) {
	if _, err := svc.repo.GetClassByID(ns.ClassID); err != nil {
		return Subject{}, err
	}
	return svc.repo.CreateSubject(Subject{
		ID:        uuid.New().String(),
		ClassID:   ns.ClassID,
		Name:      ns.Name,
		TeacherID: ns.TeacherID,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) GetClassByID(id string) (ClassRoom, error) {
	return svc.repo.GetClassByID(id)
}

func (svc *Service) GetStudentByID(id string) (Student, error) {
	return svc.repo.GetStudentByID(id)
}

func (svc *Service) GetStudentsByClass(classID string) ([]Student, error) {
	return svc.repo.GetStudentsByClass(classID)
}

func (svc *Service) GetSubjectsByClass(classID string) ([]Subject, error) {
	return svc.repo.GetSubjectsByClass(classID)
}

func (svc *Service) QueryClassesBySchool(schoolID string) ([]ClassRoom, error) {
	return svc.repo.QueryClassesBySchool(schoolID)
}
