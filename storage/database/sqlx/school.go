package sqlxrepos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/shuleni/mahudhurio/core/school"
)

type schoolRepository struct {
	db *sqlx.DB
}

func NewSchoolRepository(db *sqlx.DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateSchool(sch school.School) (school.School, error) {
	_, err := repo.db.Exec(
		`INSERT INTO school (id, name, created_at) VALUES ($1, $2, $3)`,
		sch.ID, sch.Name, sch.CreatedAt,
	)
	return sch, errors.Wrap(err, "inserting school")
}

func (repo *schoolRepository) CreateClassRoom(cls school.ClassRoom) (school.ClassRoom, error) {
	_, err := repo.db.Exec(
		`INSERT INTO class_room (id, school_id, name, teacher_id, attendance_mode, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		cls.ID, cls.SchoolID, cls.Name, cls.TeacherID, cls.AttendanceMode, cls.CreatedAt,
	)
	return cls, errors.Wrap(err, "inserting class")
}

func (repo *schoolRepository) CreateStudent(std school.Student) (school.Student, error) {
	_, err := repo.db.Exec(
		`INSERT INTO student (id, school_id, class_id, name, enrollment_no, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		std.ID, std.SchoolID, std.ClassID, std.Name, std.EnrollmentNo, std.CreatedAt,
	)
	return std, errors.Wrap(err, "inserting student")
}

func (repo *schoolRepository) CreateSubject(sub school.Subject) (school.Subject, error) {
	_, err := repo.db.Exec(
		`INSERT INTO subject (id, class_id, name, teacher_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		sub.ID, sub.ClassID, sub.Name, sub.TeacherID, sub.CreatedAt,
	)
	return sub, errors.Wrap(err, "inserting subject")
}

func (repo *schoolRepository) GetSchoolByID(id string) (school.School, error) {
	var sch school.School
	err := repo.db.QueryRowx(
		`SELECT id, name, created_at FROM school WHERE id = $1`, id,
	).Scan(&sch.ID, &sch.Name, &sch.CreatedAt)
	if err == sql.ErrNoRows {
		return school.School{}, school.ErrSchoolNotFound
	}
	return sch, errors.Wrap(err, "getting school")
}

func (repo *schoolRepository) GetClassByID(id string) (school.ClassRoom, error) {
	return getClassByID(repo.db, id)
}

func (repo *schoolRepository) GetStudentByID(id string) (school.Student, error) {
	return getStudentByID(repo.db, id)
}

func (repo *schoolRepository) GetSubjectByID(id string) (school.Subject, error) {
	return getSubjectByID(repo.db, id)
}

func (repo *schoolRepository) GetStudentsByClass(classID string) ([]school.Student, error) {
	return getStudentsByClass(repo.db, classID)
}

func (repo *schoolRepository) GetSubjectsByClass(classID string) ([]school.Subject, error) {
	rows, err := repo.db.Queryx(
		`SELECT id, class_id, name, teacher_id, created_at FROM subject WHERE class_id = $1 ORDER BY name`, classID)
	if err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	defer func() { _ = rows.Close() }()

	subjects := make([]school.Subject, 0)
	for rows.Next() {
		var sub school.Subject
		if err = rows.Scan(&sub.ID, &sub.ClassID, &sub.Name, &sub.TeacherID, &sub.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning subject")
		}
		subjects = append(subjects, sub)
	}
	return subjects, errors.Wrap(rows.Err(), "querying subjects")
}

func (repo *schoolRepository) QueryClassesBySchool(schoolID string) ([]school.ClassRoom, error) {
	rows, err := repo.db.Queryx(
		`SELECT id, school_id, name, teacher_id, attendance_mode, created_at
		 FROM class_room WHERE school_id = $1 ORDER BY name`, schoolID)
	if err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	defer func() { _ = rows.Close() }()

	classes := make([]school.ClassRoom, 0)
	for rows.Next() {
		var cls school.ClassRoom
		if err = rows.Scan(&cls.ID, &cls.SchoolID, &cls.Name, &cls.TeacherID, &cls.AttendanceMode, &cls.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning class")
		}
		classes = append(classes, cls)
	}
	return classes, errors.Wrap(rows.Err(), "querying classes")
}
