package echoapi

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/shuleni/mahudhurio/core/attendance"
)

type attendanceApi struct {
	svc      *attendance.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *attendance.Service, validate *validator.Validate) {
	api := attendanceApi{
		svc:      svc,
		validate: validate,
	}

	ag := g.Group("/attendance", jwt)

	ag.POST("", api.mark, teacherOrAdminMiddleware())
	ag.POST("/bulk", api.markBulk, teacherOrAdminMiddleware())
	ag.GET("/class/:id", api.classAttendance)
	ag.GET("/student/:id", api.studentSummary)
	ag.GET("/statistics/class/:id", api.classStatistics)
	ag.GET("/report", api.report)
	ag.PUT("/:id", api.update, teacherOrAdminMiddleware())
	ag.DELETE("/:id", api.destroy, adminMiddleware())
}

// Handlers

func (api *attendanceApi) mark(ctx echo.Context) error {
	var data attendance.SingleMark
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SingleMark")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err = api.checkCanMark(claims, data.ClassID, data.SubjectID); err != nil {
		return err
	}

	rec, err := api.svc.MarkSingle(data, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *attendanceApi) markBulk(ctx echo.Context) error {
	var data attendance.BulkMark
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkMark")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err = api.checkCanMark(claims, data.ClassID, data.SubjectID); err != nil {
		return err
	}

	res, err := api.svc.MarkBulk(data, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

// classAttendance serves two reads on one route: with ?date= it returns the
// roster for that date; with ?start_date=&end_date= it returns the raw
// records over the range.
func (api *attendanceApi) classAttendance(ctx echo.Context) error {
	classID := ctx.Param("id")
	subjectID := ctx.QueryParam("subject_id")

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err = api.checkClassSchool(claims, classID); err != nil {
		return err
	}

	if date := ctx.QueryParam("date"); date != "" {
		if err := attendance.ValidateDateFormat(date); err != nil {
			return err
		}
		roster, err := api.svc.RosterForDate(classID, date, null.NewString(subjectID, subjectID != ""))
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, roster)
	}

	start, end := ctx.QueryParam("start_date"), ctx.QueryParam("end_date")
	if err := attendance.ValidateDateRange(start, end); err != nil {
		return err
	}
	records, err := api.svc.ClassRecords(classID, attendance.Filter{
		StartDate: start,
		EndDate:   end,
		SubjectID: subjectID,
		Status:    attendance.Status(ctx.QueryParam("status")),
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) studentSummary(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err = api.checkStudentSchool(claims, ctx.Param("id")); err != nil {
		return err
	}

	period, err := bindPeriod(ctx)
	if err != nil {
		return err
	}

	summary, err := api.svc.StudentSummary(ctx.Param("id"), period, ctx.QueryParam("subject_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *attendanceApi) classStatistics(ctx echo.Context) error {
	period, err := bindPeriod(ctx)
	if err != nil {
		return err
	}
	classID := ctx.Param("id")

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err = api.checkClassSchool(claims, classID); err != nil {
		return err
	}

	// ?below=<pct> switches to the low-attendance listing
	if below := ctx.QueryParam("below"); below != "" {
		threshold, err := strconv.ParseFloat(below, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid threshold")
		}
		low, err := api.svc.LowAttendance(classID, threshold, period)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, low)
	}

	stats, err := api.svc.ClassStatistics(classID, period, ctx.QueryParam("subject_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *attendanceApi) report(ctx echo.Context) error {
	var filter attendance.ReportFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to ReportFilter")
	}
	if filter.StartDate != "" || filter.EndDate != "" {
		if err := attendance.ValidateDateRange(filter.StartDate, filter.EndDate); err != nil {
			return err
		}
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	switch {
	case filter.ClassID != "":
		err = api.checkClassSchool(claims, filter.ClassID)
	case filter.StudentID != "":
		err = api.checkStudentSchool(claims, filter.StudentID)
	}
	if err != nil {
		return err
	}
	filter.SchoolID = claims.SchoolID

	rep, err := api.svc.Report(filter)
	if err != nil {
		return err
	}

	if ctx.QueryParam("format") == "csv" {
		return writeReportCSV(ctx, rep)
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *attendanceApi) update(ctx echo.Context) error {
	id := ctx.Param("id")

	rec, err := api.svc.GetByID(id)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err = api.checkCanMark(claims, rec.ClassID, rec.SubjectID); err != nil {
		return err
	}

	var data attendance.UpdateRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRecord")
	}

	rec, err = api.svc.Update(id, data, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// checkClassSchool gates reads: a class's attendance is only visible within
// its own school. Unknown classes surface as not-found.
func (api *attendanceApi) checkClassSchool(claims Claims, classID string) error {
	cls, err := api.svc.GetClass(classID)
	if err != nil {
		return err
	}
	if cls.SchoolID != claims.SchoolID {
		return errHttpForbidden
	}
	return nil
}

// checkStudentSchool gates student reads through the student's class.
func (api *attendanceApi) checkStudentSchool(claims Claims, studentID string) error {
	std, err := api.svc.GetStudent(studentID)
	if err != nil {
		return err
	}
	return api.checkClassSchool(claims, std.ClassID)
}

// checkCanMark applies the marking authorization. Admins bypass the resolver;
// everyone else must be cleared by it.
func (api *attendanceApi) checkCanMark(claims Claims, classID string, subjectID null.String) error {
	if claims.IsAdmin {
		return nil
	}
	ok, err := api.svc.CanMark(claims.Subject, classID, subjectID)
	if err != nil {
		return errors.Wrap(err, "resolving marking authorization")
	}
	if !ok {
		return attendance.ErrNotAuthorized
	}
	return nil
}

func bindPeriod(ctx echo.Context) (attendance.Period, error) {
	start, end := ctx.QueryParam("start_date"), ctx.QueryParam("end_date")
	if start != "" || end != "" {
		if err := attendance.ValidateDateRange(start, end); err != nil {
			return attendance.Period{}, err
		}
	}
	return attendance.Period{StartDate: start, EndDate: end}, nil
}

var reportCSVHeader = []string{
	"Date", "Student Name", "Enrollment No", "Class", "Subject", "Status", "Marked By", "Marked At", "Notes",
}

func writeReportCSV(ctx echo.Context, rep attendance.Report) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(reportCSVHeader); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}
	for _, row := range rep.Rows {
		record := []string{
			row.Date,
			row.StudentName,
			row.EnrollmentNo,
			row.ClassName,
			row.SubjectName,
			string(row.Status),
			row.MarkedBy,
			row.MarkedAt.UTC().Format(time.RFC3339),
			row.Notes,
		}
		if err := w.Write(record); err != nil {
			return errors.Wrap(err, "writing CSV row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "flushing CSV")
	}

	filename := fmt.Sprintf("attendance-report-%s.csv", time.Now().UTC().Format("2006-01-02"))
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	return ctx.Blob(http.StatusOK, "text/csv", buf.Bytes())
}
