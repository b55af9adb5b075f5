package attendance

import (
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

// RiskLevel maps an attendance percentage to its risk tier. Higher attendance
// yields the lower risk word; thresholds and labels are contract values.
func RiskLevel(percentage float64) string {
	switch {
	case percentage >= 90:
		return RiskLow
	case percentage >= 75:
		return RiskMedium
	case percentage >= 60:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// StudentStatistics counts a student's records over a period. With no
// matching records all counts and the percentage are zero.
func (svc *Service) StudentStatistics(studentID string, period Period, subjectID string) (Stats, error) {
	records, err := svc.store.GetAttendanceByStudent(studentID, Filter{
		StartDate: period.StartDate,
		EndDate:   period.EndDate,
		SubjectID: subjectID,
	})
	if err != nil {
		return Stats{}, errors.Wrap(err, "querying student attendance")
	}
	return tally(records), nil
}

// ClassStatistics aggregates a class over a period: one overall tally plus a
// per-student breakdown sorted ascending by percentage, so the students most
// needing attention surface first.
func (svc *Service) ClassStatistics(classID string, period Period, subjectID string) (ClassStats, error) {
	if _, err := svc.store.GetClassByID(classID); err != nil {
		return ClassStats{}, err
	}
	records, err := svc.store.GetAttendanceByClass(classID, Filter{
		StartDate: period.StartDate,
		EndDate:   period.EndDate,
		SubjectID: subjectID,
	})
	if err != nil {
		return ClassStats{}, errors.Wrap(err, "querying class attendance")
	}
	students, err := svc.store.GetStudentsByClass(classID)
	if err != nil {
		return ClassStats{}, errors.Wrap(err, "querying class roster")
	}

	overallTally := tally(records)
	overall := ClassOverall{
		TotalStudents:     len(students),
		TotalRecords:      overallTally.TotalDays,
		Present:           overallTally.Present,
		Absent:            overallTally.Absent,
		Late:              overallTally.Late,
		Excused:           overallTally.Excused,
		AverageAttendance: overallTally.Percentage,
	}

	byStudent := make(map[string][]Record, len(students))
	for _, rec := range records {
		byStudent[rec.StudentID] = append(byStudent[rec.StudentID], rec)
	}

	studentWise := make([]StudentStats, 0, len(students))
	for _, std := range students {
		stats := tally(byStudent[std.ID])
		studentWise = append(studentWise, StudentStats{
			StudentID:    std.ID,
			StudentName:  std.Name,
			EnrollmentNo: std.EnrollmentNo,
			Stats:        stats,
			RiskLevel:    RiskLevel(stats.Percentage),
		})
	}
	sort.SliceStable(studentWise, func(i, j int) bool {
		return studentWise[i].Percentage < studentWise[j].Percentage
	})

	return ClassStats{Overall: overall, Students: studentWise}, nil
}

// LowAttendance lists the students of a class below the threshold, ascending
// by percentage. Students with no records in the period are skipped: no data
// is not the same as poor attendance.
func (svc *Service) LowAttendance(classID string, threshold float64, period Period) ([]StudentStats, error) {
	if _, err := svc.store.GetClassByID(classID); err != nil {
		return nil, err
	}
	students, err := svc.store.GetStudentsByClass(classID)
	if err != nil {
		return nil, errors.Wrap(err, "querying class roster")
	}

	low := make([]StudentStats, 0)
	for _, std := range students {
		stats, err := svc.StudentStatistics(std.ID, period, "")
		if err != nil {
			return nil, err
		}
		if stats.TotalDays > 0 && stats.Percentage < threshold {
			low = append(low, StudentStats{
				StudentID:    std.ID,
				StudentName:  std.Name,
				EnrollmentNo: std.EnrollmentNo,
				Stats:        stats,
				RiskLevel:    RiskLevel(stats.Percentage),
			})
		}
	}
	sort.SliceStable(low, func(i, j int) bool { return low[i].Percentage < low[j].Percentage })
	return low, nil
}

// RosterForDate joins the full class roster against the records of one date.
// Students with no record appear with a null status: "not yet marked" must
// stay distinguishable from "marked absent".
func (svc *Service) RosterForDate(classID, date string, subjectID null.String) (Roster, error) {
	if _, err := svc.store.GetClassByID(classID); err != nil {
		return Roster{}, err
	}
	records, err := svc.store.GetAttendanceByDate(date, classID, subjectID)
	if err != nil {
		return Roster{}, errors.Wrap(err, "querying attendance by date")
	}
	students, err := svc.store.GetStudentsByClass(classID)
	if err != nil {
		return Roster{}, errors.Wrap(err, "querying class roster")
	}

	byStudent := make(map[string]Record, len(records))
	for _, rec := range records {
		byStudent[rec.StudentID] = rec
	}

	entries := make([]RosterEntry, 0, len(students))
	for _, std := range students {
		entry := RosterEntry{
			StudentID:    std.ID,
			StudentName:  std.Name,
			EnrollmentNo: std.EnrollmentNo,
		}
		if rec, ok := byStudent[std.ID]; ok {
			entry.Status = null.StringFrom(string(rec.Status))
			entry.Notes = rec.Notes
			entry.MarkedAt = null.TimeFrom(rec.MarkedAt)
			entry.RecordID = null.StringFrom(rec.ID)
		}
		entries = append(entries, entry)
	}

	recTally := tally(records)
	return Roster{
		Date:      date,
		ClassID:   classID,
		SubjectID: subjectID,
		Summary: RosterSummary{
			TotalStudents: len(students),
			Marked:        len(records),
			Unmarked:      len(students) - len(records),
			Present:       recTally.Present,
			Absent:        recTally.Absent,
			Late:          recTally.Late,
			Excused:       recTally.Excused,
		},
		Entries: entries,
	}, nil
}

// StudentSummary returns a student's statistics plus their enriched record
// list for a period, most recent first.
func (svc *Service) StudentSummary(studentID string, period Period, subjectID string) (StudentSummary, error) {
	std, err := svc.store.GetStudentByID(studentID)
	if err != nil {
		return StudentSummary{}, err
	}

	records, err := svc.store.GetAttendanceByStudent(studentID, Filter{
		StartDate: period.StartDate,
		EndDate:   period.EndDate,
		SubjectID: subjectID,
	})
	if err != nil {
		return StudentSummary{}, errors.Wrap(err, "querying student attendance")
	}

	enriched := make([]SummaryRecord, 0, len(records))
	for _, rec := range records {
		sr := SummaryRecord{
			ID:       rec.ID,
			Date:     rec.Date,
			Status:   rec.Status,
			MarkedAt: rec.MarkedAt,
			Notes:    rec.Notes,
		}
		if cls, err := svc.store.GetClassByID(rec.ClassID); err == nil {
			sr.ClassName = cls.Name
		}
		if rec.SubjectID.Valid {
			if sub, err := svc.store.GetSubjectByID(rec.SubjectID.String); err == nil {
				sr.SubjectName = null.StringFrom(sub.Name)
			}
		}
		if usr, err := svc.store.GetUserByID(rec.MarkedBy); err == nil {
			sr.MarkedBy = usr.Name
		}
		enriched = append(enriched, sr)
	}
	sort.SliceStable(enriched, func(i, j int) bool { return enriched[i].Date > enriched[j].Date })

	return StudentSummary{
		Student: StudentRef{
			ID:           std.ID,
			Name:         std.Name,
			EnrollmentNo: std.EnrollmentNo,
			ClassID:      std.ClassID,
		},
		Period:     period,
		Statistics: tally(records),
		Records:    enriched,
	}, nil
}

// Report flattens matching records into denormalized rows, date descending.
// This is the structure an export is built from, not the export itself.
func (svc *Service) Report(f ReportFilter) (Report, error) {
	var records []Record
	var err error

	filter := Filter{StartDate: f.StartDate, EndDate: f.EndDate, SubjectID: f.SubjectID, SchoolID: f.SchoolID}
	switch {
	case f.StudentID != "":
		records, err = svc.store.GetAttendanceByStudent(f.StudentID, filter)
	case f.ClassID != "":
		records, err = svc.store.GetAttendanceByClass(f.ClassID, filter)
	default:
		records, err = svc.store.QueryAttendance(filter)
	}
	if err != nil {
		return Report{}, errors.Wrap(err, "querying attendance")
	}

	rows := make([]ReportRow, 0, len(records))
	for _, rec := range records {
		row := ReportRow{
			Date:         rec.Date,
			StudentName:  "Unknown",
			EnrollmentNo: "N/A",
			ClassName:    "Unknown",
			SubjectName:  "N/A",
			Status:       rec.Status,
			MarkedBy:     "Unknown",
			MarkedAt:     rec.MarkedAt,
			Notes:        rec.Notes.String,
		}
		if std, err := svc.store.GetStudentByID(rec.StudentID); err == nil {
			row.StudentName = std.Name
			row.EnrollmentNo = std.EnrollmentNo
		}
		if cls, err := svc.store.GetClassByID(rec.ClassID); err == nil {
			row.ClassName = cls.Name
		}
		if rec.SubjectID.Valid {
			if sub, err := svc.store.GetSubjectByID(rec.SubjectID.String); err == nil {
				row.SubjectName = sub.Name
			}
		}
		if usr, err := svc.store.GetUserByID(rec.MarkedBy); err == nil {
			row.MarkedBy = usr.Name
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date > rows[j].Date })

	return Report{
		GeneratedAt:  time.Now().UTC(),
		Period:       Period{StartDate: f.StartDate, EndDate: f.EndDate},
		TotalRecords: len(rows),
		Rows:         rows,
	}, nil
}

// tally counts records per status. Present, late and excused all count as
// attended for the percentage; the result is rounded to one decimal place.
func tally(records []Record) Stats {
	stats := Stats{TotalDays: len(records)}
	for _, rec := range records {
		switch rec.Status {
		case StatusPresent:
			stats.Present++
		case StatusAbsent:
			stats.Absent++
		case StatusLate:
			stats.Late++
		case StatusExcused:
			stats.Excused++
		}
	}
	if stats.TotalDays > 0 {
		attended := float64(stats.Present + stats.Late + stats.Excused)
		stats.Percentage = math.Round(attended/float64(stats.TotalDays)*100*10) / 10
	}
	return stats
}
