package attendance_test

import (
	"testing"
	"time"

	"github.com/shuleni/mahudhurio/core/attendance"
	"github.com/shuleni/mahudhurio/core/school"
	"github.com/shuleni/mahudhurio/core/user"
	inmemdb "github.com/shuleni/mahudhurio/storage/database/inmem"
	testutil "github.com/shuleni/mahudhurio/tests"
)

// fixture is a school with one daily-mode class and one subject-wise class,
// wired against the in-memory store.
type fixture struct {
	store attendance.Store
	svc   *attendance.Service

	usrRepo user.Repository
	schRepo school.Repository

	sch      school.School
	incharge user.User // incharge of both classes
	subjTchr user.User // teaches mathematics in the subject-wise class

	daily       school.ClassRoom
	subjectWise school.ClassRoom
	mathematics school.Subject

	dailyStudents []school.Student
	outsider      school.Student // enrolled in subjectWise, not daily
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}

	f := &fixture{
		store:   inmemdb.NewStore(db),
		usrRepo: inmemdb.NewUserRepository(db),
		schRepo: inmemdb.NewSchoolRepository(db),
	}
	f.svc = attendance.NewService(f.store)

	f.sch = testutil.CreateSchool(t, f.schRepo, "Shuleni Primary")
	f.incharge = testutil.CreateUser(t, f.usrRepo,
		"Asha Mwangi", "asha", "asha@test.cd", "", f.sch.ID, []string{user.RoleTeacher}, true)
	f.subjTchr = testutil.CreateUser(t, f.usrRepo,
		"Juma Okello", "juma", "juma@test.cd", "", f.sch.ID, []string{user.RoleTeacher}, true)

	f.daily = testutil.CreateClass(t, f.schRepo, f.sch.ID, "Form 1A", f.incharge.ID, school.ModeDaily)
	f.subjectWise = testutil.CreateClass(t, f.schRepo, f.sch.ID, "Form 2B", f.incharge.ID, school.ModeSubjectWise)
	f.mathematics = testutil.CreateSubject(t, f.schRepo, f.subjectWise.ID, "Mathematics", f.subjTchr.ID)

	names := []string{"Neema Hassan", "Baraka Otieno", "Zawadi Njoroge", "Amani Kamau"}
	for i, name := range names {
		f.dailyStudents = append(f.dailyStudents,
			testutil.CreateStudent(t, f.schRepo, f.sch.ID, f.daily.ID, name, enrollmentNo(i)))
	}
	f.outsider = testutil.CreateStudent(t, f.schRepo, f.sch.ID, f.subjectWise.ID, "Rehema Abdi", "2B-001")
	return f
}

func enrollmentNo(i int) string {
	return "1A-00" + string(rune('1'+i))
}

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}

func daysAgo(n int) string {
	return time.Now().UTC().AddDate(0, 0, -n).Format("2006-01-02")
}
