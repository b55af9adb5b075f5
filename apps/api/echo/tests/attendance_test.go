package tests

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/shuleni/mahudhurio/core/attendance"
	"github.com/shuleni/mahudhurio/core/school"
	"github.com/shuleni/mahudhurio/core/user"
	testutil "github.com/shuleni/mahudhurio/tests"
)

type apiFixture struct {
	sch      school.School
	incharge user.User
	other    user.User // teacher of the same school, not incharge
	admin    user.User
	pupil    user.User
	class    school.ClassRoom
	students []school.Student
}

func newAPIFixture(t *testing.T, tag string) *apiFixture {
	t.Helper()

	f := &apiFixture{}
	f.sch = testutil.CreateSchool(t, schRepo, "School "+tag)
	f.incharge = testutil.CreateUser(t, usrRepo,
		"Incharge "+tag, "incharge-"+tag, "", "", f.sch.ID, []string{user.RoleTeacher}, true)
	f.other = testutil.CreateUser(t, usrRepo,
		"Other "+tag, "other-"+tag, "", "", f.sch.ID, []string{user.RoleTeacher}, true)
	f.admin = testutil.CreateUser(t, usrRepo,
		"Admin "+tag, "admin-"+tag, "", "", f.sch.ID, []string{user.RoleAdmin}, true)
	f.pupil = testutil.CreateUser(t, usrRepo,
		"Pupil "+tag, "pupil-"+tag, "", "", f.sch.ID, []string{user.RoleStudent}, true)
	f.class = testutil.CreateClass(t, schRepo, f.sch.ID, "Class "+tag, f.incharge.ID, school.ModeDaily)
	for i, name := range []string{"Alpha", "Bravo", "Charlie"} {
		f.students = append(f.students,
			testutil.CreateStudent(t, schRepo, f.sch.ID, f.class.ID, name+" "+tag, tag+"-00"+string(rune('1'+i))))
	}
	return f
}

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}

func TestAttendanceAPI_mark(t *testing.T) {
	f := newAPIFixture(t, "mark")

	payload := func(studentID string) []byte {
		return marshallObj(t, attendance.SingleMark{
			StudentID: studentID,
			ClassID:   f.class.ID,
			Date:      today(),
			Status:    "present",
		})
	}

	// unauthenticated
	req, rec := newRequest(http.MethodPost, "/v1/attendance", payload(f.students[0].ID))
	app.ServeHTTP(rec, req)
	checkCode(t, rec, http.StatusUnauthorized)

	// student role is rejected by the role gate
	req, rec = newAuthRequest(http.MethodPost, "/v1/attendance", getToken(t, f.pupil), payload(f.students[0].ID))
	app.ServeHTTP(rec, req)
	checkCode(t, rec, http.StatusForbidden)

	// a teacher who is not incharge is rejected by the resolver
	req, rec = newAuthRequest(http.MethodPost, "/v1/attendance", getToken(t, f.other), payload(f.students[0].ID))
	app.ServeHTTP(rec, req)
	checkCode(t, rec, http.StatusForbidden)

	// the incharge teacher marks
	req, rec = newAuthRequest(http.MethodPost, "/v1/attendance", getToken(t, f.incharge), payload(f.students[0].ID))
	app.ServeHTTP(rec, req)
	checkCode(t, rec, http.StatusCreated)

	var created attendance.Record
	decodeBody(t, rec, &created)
	if created.Status != attendance.StatusPresent || created.MarkedBy != f.incharge.ID {
		t.Errorf("record = %+v; want present marked by %s", created, f.incharge.ID)
	}

	// marking the same key again conflicts
	req, rec = newAuthRequest(http.MethodPost, "/v1/attendance", getToken(t, f.incharge), payload(f.students[0].ID))
	app.ServeHTTP(rec, req)
	checkCode(t, rec, http.StatusConflict)

	// admins bypass the resolver
	req, rec = newAuthRequest(http.MethodPost, "/v1/attendance", getToken(t, f.admin), payload(f.students[1].ID))
	app.ServeHTTP(rec, req)
	checkCode(t, rec, http.StatusCreated)
}

func TestAttendanceAPI_markBulk(t *testing.T) {
	f := newAPIFixture(t, "bulk")

	body := marshallObj(t, attendance.BulkMark{
		ClassID: f.class.ID,
		Date:    today(),
		Rows: []attendance.BulkRow{
			{StudentID: f.students[0].ID, Status: "present"},
			{StudentID: f.students[1].ID, Status: "late"},
			{StudentID: "nope", Status: "present"},
		},
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/bulk", getToken(t, f.incharge), body)
	app.ServeHTTP(rec, req)
	checkCode(t, rec, http.StatusOK)

	var res attendance.BulkResult
	decodeBody(t, rec, &res)
	if res.Marked != 2 || res.Failed != 1 {
		t.Errorf("marked/failed = %d/%d; want 2/1", res.Marked, res.Failed)
	}
	if len(res.Errors) != 1 || res.Errors[0].StudentID != "nope" {
		t.Errorf("errors = %+v; want one entry for the unknown student", res.Errors)
	}
}

func TestAttendanceAPI_roster(t *testing.T) {
	f := newAPIFixture(t, "roster")

	testutil.AddRecord(t, store, f.students[0].ID, f.class.ID, null.String{}, today(), attendance.StatusPresent, f.incharge.ID)

	req, rec := newAuthRequest(http.MethodGet,
		"/v1/attendance/class/"+f.class.ID+"?date="+today(), getToken(t, f.incharge))
	app.ServeHTTP(rec, req)
	checkCode(t, rec, http.StatusOK)

	var roster attendance.Roster
	decodeBody(t, rec, &roster)
	if len(roster.Entries) != len(f.students) {
		t.Errorf("entries = %d; want %d", len(roster.Entries), len(f.students))
	}
	if roster.Summary.Marked != 1 || roster.Summary.Unmarked != len(f.students)-1 {
		t.Errorf("summary = %+v; want 1 marked", roster.Summary)
	}
}

func TestAttendanceAPI_classStatistics(t *testing.T) {
	f := newAPIFixture(t, "stats")

	testutil.AddRecord(t, store, f.students[0].ID, f.class.ID, null.String{}, "2024-03-01", attendance.StatusPresent, f.incharge.ID)
	testutil.AddRecord(t, store, f.students[1].ID, f.class.ID, null.String{}, "2024-03-01", attendance.StatusAbsent, f.incharge.ID)

	req, rec := newAuthRequest(http.MethodGet,
		"/v1/attendance/statistics/class/"+f.class.ID, getToken(t, f.incharge))
	app.ServeHTTP(rec, req)
	checkCode(t, rec, http.StatusOK)

	var stats attendance.ClassStats
	decodeBody(t, rec, &stats)
	if stats.Overall.TotalRecords != 2 || stats.Overall.TotalStudents != len(f.students) {
		t.Errorf("overall = %+v; want 2 records over %d students", stats.Overall, len(f.students))
	}
	// worst percentage first
	if len(stats.Students) == 0 || stats.Students[0].Percentage > stats.Students[len(stats.Students)-1].Percentage {
		t.Errorf("students not sorted ascending: %+v", stats.Students)
	}
}

func TestAttendanceAPI_reportCSV(t *testing.T) {
	f := newAPIFixture(t, "csv")

	testutil.AddRecord(t, store, f.students[0].ID, f.class.ID, null.String{}, "2024-03-04", attendance.StatusLate, f.incharge.ID)

	req, rec := newAuthRequest(http.MethodGet,
		"/v1/attendance/report?class_id="+f.class.ID+"&format=csv", getToken(t, f.incharge))
	app.ServeHTTP(rec, req)
	checkCode(t, rec, http.StatusOK)

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q; want text/csv", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("CSV lines = %d; want header + 1 row", len(lines))
	}
	wantHeader := "Date,Student Name,Enrollment No,Class,Subject,Status,Marked By,Marked At,Notes"
	if strings.TrimSpace(lines[0]) != wantHeader {
		t.Errorf("header = %q; want %q", lines[0], wantHeader)
	}
	if !strings.HasPrefix(lines[1], "2024-03-04,"+f.students[0].Name) {
		t.Errorf("row = %q; want it to start with the date and student name", lines[1])
	}
}

func TestAttendanceAPI_updateAndDelete(t *testing.T) {
	f := newAPIFixture(t, "upd")

	rec0 := testutil.AddRecord(t, store, f.students[0].ID, f.class.ID, null.String{}, today(), attendance.StatusAbsent, f.incharge.ID)

	body := marshallObj(t, attendance.UpdateRecord{Status: "excused"})
	req, rec := newAuthRequest(http.MethodPut, "/v1/attendance/"+rec0.ID, getToken(t, f.incharge), body)
	app.ServeHTTP(rec, req)
	checkCode(t, rec, http.StatusOK)

	var updated attendance.Record
	decodeBody(t, rec, &updated)
	if updated.Status != attendance.StatusExcused {
		t.Errorf("status = %q; want excused", updated.Status)
	}

	// delete is admin-only
	req, rec = newAuthRequest(http.MethodDelete, "/v1/attendance/"+rec0.ID, getToken(t, f.incharge))
	app.ServeHTTP(rec, req)
	checkCode(t, rec, http.StatusForbidden)

	req, rec = newAuthRequest(http.MethodDelete, "/v1/attendance/"+rec0.ID, getToken(t, f.admin))
	app.ServeHTTP(rec, req)
	checkCode(t, rec, http.StatusNoContent)

	req, rec = newAuthRequest(http.MethodDelete, "/v1/attendance/"+rec0.ID, getToken(t, f.admin))
	app.ServeHTTP(rec, req)
	checkCode(t, rec, http.StatusNotFound)
}

func TestAttendanceAPI_schoolScoping(t *testing.T) {
	f := newAPIFixture(t, "scope")

	otherSchool := testutil.CreateSchool(t, schRepo, "School scope-b")
	foreign := testutil.CreateUser(t, usrRepo,
		"Foreign scope", "foreign-scope", "", "", otherSchool.ID, []string{user.RoleTeacher}, true)

	testutil.AddRecord(t, store, f.students[0].ID, f.class.ID, null.String{}, today(), attendance.StatusPresent, f.incharge.ID)

	// another school's data is off limits on every read route
	reads := []struct {
		name string
		path string
	}{
		{name: "roster", path: "/v1/attendance/class/" + f.class.ID + "?date=" + today()},
		{name: "student summary", path: "/v1/attendance/student/" + f.students[0].ID},
		{name: "class statistics", path: "/v1/attendance/statistics/class/" + f.class.ID},
		{name: "class report", path: "/v1/attendance/report?class_id=" + f.class.ID},
		{name: "student report", path: "/v1/attendance/report?student_id=" + f.students[0].ID},
	}
	for _, tt := range reads {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, getToken(t, foreign))
			app.ServeHTTP(rec, req)
			checkCode(t, rec, http.StatusForbidden)
		})
	}

	// an unfiltered report only covers the caller's own school
	req, rec := newAuthRequest(http.MethodGet, "/v1/attendance/report", getToken(t, foreign))
	app.ServeHTTP(rec, req)
	checkCode(t, rec, http.StatusOK)

	var rep attendance.Report
	decodeBody(t, rec, &rep)
	if rep.TotalRecords != 0 {
		t.Errorf("TotalRecords = %d; want 0 for a school with no records", rep.TotalRecords)
	}

	// an unknown class is a 404, not an empty 200
	req, rec = newAuthRequest(http.MethodGet, "/v1/attendance/class/nope?date="+today(), getToken(t, f.incharge))
	app.ServeHTTP(rec, req)
	checkCode(t, rec, http.StatusNotFound)

	req, rec = newAuthRequest(http.MethodGet, "/v1/attendance/statistics/class/nope", getToken(t, f.incharge))
	app.ServeHTTP(rec, req)
	checkCode(t, rec, http.StatusNotFound)
}

func TestAttendanceAPI_studentSummary(t *testing.T) {
	f := newAPIFixture(t, "sum")

	testutil.AddRecord(t, store, f.students[0].ID, f.class.ID, null.String{}, "2024-03-01", attendance.StatusPresent, f.incharge.ID)
	testutil.AddRecord(t, store, f.students[0].ID, f.class.ID, null.String{}, "2024-03-02", attendance.StatusLate, f.incharge.ID)

	req, rec := newAuthRequest(http.MethodGet,
		"/v1/attendance/student/"+f.students[0].ID, getToken(t, f.incharge))
	app.ServeHTTP(rec, req)
	checkCode(t, rec, http.StatusOK)

	var summary attendance.StudentSummary
	decodeBody(t, rec, &summary)
	if summary.Statistics.TotalDays != 2 || summary.Statistics.Percentage != 100 {
		t.Errorf("statistics = %+v; want 2 days at 100%%", summary.Statistics)
	}
	if len(summary.Records) != 2 || summary.Records[0].Date != "2024-03-02" {
		t.Errorf("records = %+v; want newest first", summary.Records)
	}
}
