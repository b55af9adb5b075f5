package inmemdb

import (
	"sort"

	"github.com/shuleni/mahudhurio/core/school"
)

type schoolRepository struct {
	db *DB
}

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateSchool(sch school.School) (school.School, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.schools[sch.ID] = &sch
	return sch, nil
}

func (repo *schoolRepository) CreateClassRoom(cls school.ClassRoom) (school.ClassRoom, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.classes[cls.ID] = &cls
	return cls, nil
}

func (repo *schoolRepository) CreateStudent(std school.Student) (school.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.students[std.ID] = &std
	return std, nil
}

func (repo *schoolRepository) CreateSubject(sub school.Subject) (school.Subject, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.subjects[sub.ID] = &sub
	return sub, nil
}

func (repo *schoolRepository) GetSchoolByID(id string) (school.School, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sch, ok := repo.db.schools[id]; ok {
		return *sch, nil
	}
	return school.School{}, school.ErrSchoolNotFound
}

func (repo *schoolRepository) GetClassByID(id string) (school.ClassRoom, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return getClassByID(repo.db, id)
}

func (repo *schoolRepository) GetStudentByID(id string) (school.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return getStudentByID(repo.db, id)
}

func (repo *schoolRepository) GetSubjectByID(id string) (school.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return getSubjectByID(repo.db, id)
}

func (repo *schoolRepository) GetStudentsByClass(classID string) ([]school.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return getStudentsByClass(repo.db, classID)
}

func (repo *schoolRepository) GetSubjectsByClass(classID string) ([]school.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	subjects := make([]school.Subject, 0)
	for _, sub := range repo.db.subjects {
		if sub.ClassID == classID {
			subjects = append(subjects, *sub)
		}
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
	return subjects, nil
}

func (repo *schoolRepository) QueryClassesBySchool(schoolID string) ([]school.ClassRoom, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	classes := make([]school.ClassRoom, 0)
	for _, cls := range repo.db.classes {
		if cls.SchoolID == schoolID {
			classes = append(classes, *cls)
		}
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	return classes, nil
}

// shared lookups, used by both the school repository and the attendance store

func getClassByID(db *DB, id string) (school.ClassRoom, error) {
	if cls, ok := db.classes[id]; ok {
		return *cls, nil
	}
	return school.ClassRoom{}, school.ErrClassNotFound
}

func getStudentByID(db *DB, id string) (school.Student, error) {
	if std, ok := db.students[id]; ok {
		return *std, nil
	}
	return school.Student{}, school.ErrStudentNotFound
}

func getSubjectByID(db *DB, id string) (school.Subject, error) {
	if sub, ok := db.subjects[id]; ok {
		return *sub, nil
	}
	return school.Subject{}, school.ErrSubjectNotFound
}

func getStudentsByClass(db *DB, classID string) ([]school.Student, error) {
	students := make([]school.Student, 0)
	for _, std := range db.students {
		if std.ClassID == classID {
			students = append(students, *std)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].EnrollmentNo < students[j].EnrollmentNo })
	return students, nil
}
