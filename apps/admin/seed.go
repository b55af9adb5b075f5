package main

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/shuleni/mahudhurio/core/attendance"
	"github.com/shuleni/mahudhurio/core/school"
	"github.com/shuleni/mahudhurio/core/user"
)

// seed loads a small demo dataset: one school, two teachers, a daily-mode
// class and a subject-wise class, each with a handful of students.
func (cli *commandLine) seed() error {
	sch, err := cli.schSvc.CreateSchool("Shuleni Demo School")
	if err != nil {
		return errors.Wrap(err, "creating school")
	}

	incharge, err := cli.usrSvc.Create(user.NewUser{
		Name:            "Asha Mwangi",
		Username:        "asha.mwangi",
		Email:           "asha@shuleni.example",
		SchoolID:        sch.ID,
		Password:        "karibu-shuleni",
		PasswordConfirm: "karibu-shuleni",
		Roles:           []string{user.RoleTeacher},
	})
	if err != nil {
		return errors.Wrap(err, "creating incharge teacher")
	}
	subjectTeacher, err := cli.usrSvc.Create(user.NewUser{
		Name:            "Juma Okello",
		Username:        "juma.okello",
		Email:           "juma@shuleni.example",
		SchoolID:        sch.ID,
		Password:        "karibu-shuleni",
		PasswordConfirm: "karibu-shuleni",
		Roles:           []string{user.RoleTeacher},
	})
	if err != nil {
		return errors.Wrap(err, "creating subject teacher")
	}

	daily, err := cli.schSvc.CreateClassRoom(school.NewClassRoom{
		SchoolID:       sch.ID,
		Name:           "Form 1A",
		TeacherID:      incharge.ID,
		AttendanceMode: school.ModeDaily,
	})
	if err != nil {
		return errors.Wrap(err, "creating daily class")
	}
	subjectWise, err := cli.schSvc.CreateClassRoom(school.NewClassRoom{
		SchoolID:       sch.ID,
		Name:           "Form 2B",
		TeacherID:      incharge.ID,
		AttendanceMode: school.ModeSubjectWise,
	})
	if err != nil {
		return errors.Wrap(err, "creating subject-wise class")
	}

	if _, err = cli.schSvc.CreateSubject(school.NewSubject{
		ClassID:   subjectWise.ID,
		Name:      "Mathematics",
		TeacherID: subjectTeacher.ID,
	}); err != nil {
		return errors.Wrap(err, "creating subject")
	}

	names := []string{"Neema Hassan", "Baraka Otieno", "Zawadi Njoroge", "Amani Kamau", "Rehema Abdi"}
	rows := make([]attendance.BulkRow, 0, len(names))
	for _, cls := range []school.ClassRoom{daily, subjectWise} {
		for i, name := range names {
			std, err := cli.schSvc.CreateStudent(school.NewStudent{
				SchoolID:     sch.ID,
				ClassID:      cls.ID,
				Name:         name,
				EnrollmentNo: fmt.Sprintf("%s-%03d", cls.Name[len(cls.Name)-2:], i+1),
			})
			if err != nil {
				return errors.Wrap(err, "enrolling student")
			}
			if cls.ID == daily.ID {
				rows = append(rows, attendance.BulkRow{StudentID: std.ID, Status: string(attendance.StatusPresent)})
			}
		}
	}

	// mark today's attendance for the daily class so reports have data
	res, err := cli.attSvc.MarkBulk(attendance.BulkMark{
		ClassID: daily.ID,
		Date:    time.Now().UTC().Format("2006-01-02"),
		Rows:    rows,
	}, incharge.ID)
	if err != nil {
		return errors.Wrap(err, "marking demo attendance")
	}

	logger.Printf("seeded school %s (daily class %s, subject-wise class %s, %d records marked)",
		sch.ID, daily.ID, subjectWise.ID, res.Marked)
	return nil
}
