package attendance_test

import (
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/shuleni/mahudhurio/core/user"
	testutil "github.com/shuleni/mahudhurio/tests"
)

func TestService_CanMark(t *testing.T) {
	f := newFixture(t)

	otherSchool := testutil.CreateSchool(t, f.schRepo, "Another School")
	foreignTchr := testutil.CreateUser(t, f.usrRepo,
		"Far Away", "faraway", "", "", otherSchool.ID, []string{user.RoleTeacher}, true)
	adminOnly := testutil.CreateUser(t, f.usrRepo,
		"Head Admin", "head", "", "", f.sch.ID, []string{user.RoleAdmin}, true)
	studentUsr := testutil.CreateUser(t, f.usrRepo,
		"Some Student", "pupil", "", "", f.sch.ID, []string{user.RoleStudent}, true)

	mathID := null.StringFrom(f.mathematics.ID)

	tests := []struct {
		name      string
		actorID   string
		classID   string
		subjectID null.String
		want      bool
	}{
		// daily mode: only the incharge teacher
		{name: "daily: incharge", actorID: f.incharge.ID, classID: f.daily.ID, want: true},
		{name: "daily: other teacher", actorID: f.subjTchr.ID, classID: f.daily.ID, want: false},
		{name: "daily: teacher of another school", actorID: foreignTchr.ID, classID: f.daily.ID, want: false},
		{name: "daily: admin without teacher role", actorID: adminOnly.ID, classID: f.daily.ID, want: false},
		{name: "daily: student", actorID: studentUsr.ID, classID: f.daily.ID, want: false},
		{name: "daily: unknown actor", actorID: "nope", classID: f.daily.ID, want: false},

		// subject-wise mode: only the subject's assigned teacher
		{name: "subject: assigned teacher", actorID: f.subjTchr.ID, classID: f.subjectWise.ID, subjectID: mathID, want: true},
		{name: "subject: incharge is not assigned", actorID: f.incharge.ID, classID: f.subjectWise.ID, subjectID: mathID, want: false},
		{name: "subject: unknown subject", actorID: f.subjTchr.ID, classID: f.subjectWise.ID, subjectID: null.StringFrom("nope"), want: false},

		// no subject on a subject-wise class falls back to the incharge rule
		{name: "subject-wise class, daily mark: incharge", actorID: f.incharge.ID, classID: f.subjectWise.ID, want: true},

		{name: "unknown class", actorID: f.incharge.ID, classID: "nope", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.CanMark(tt.actorID, tt.classID, tt.subjectID)
			if err != nil {
				t.Fatalf("CanMark() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("CanMark() = %v; want %v", got, tt.want)
			}
		})
	}
}
