package attendance

import (
	"fmt"
	"regexp"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/shuleni/mahudhurio/core"
)

const (
	dateLayout = "2006-01-02"

	// marking window: no future attendance, no backfill older than 30 days
	maxBackfillDays = 30

	// reporting window
	maxRangeDays = 365
)

var (
	nowFunc = time.Now // mockable

	dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	errStatusRequired = errors.New("status is required")
	errInvalidStatus  = fmt.Errorf("invalid status, must be one of: %s, %s, %s, %s",
		StatusPresent, StatusAbsent, StatusLate, StatusExcused)
	errDateRequired    = errors.New("date is required")
	errInvalidDateFmt  = errors.New("invalid date format, use YYYY-MM-DD")
	errInvalidDate     = errors.New("invalid date")
	errFutureDate      = errors.New("cannot mark attendance for future dates")
	errStaleDate       = fmt.Errorf("cannot mark attendance for dates older than %d days", maxBackfillDays)
	errRangeRequired   = errors.New("start date and end date are required")
	errStartAfterEnd   = errors.New("start date must be before or equal to end date")
	errRangeTooLarge   = fmt.Errorf("date range cannot exceed %d days", maxRangeDays)
	errInvalidRangeFmt = errors.New("invalid date format")

	attStatusTag  = "attstatus"
	attStatusText = errInvalidStatus.Error()
)

// InitValidators registers the attendance package's custom validations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(attStatusTag, attStatusValidation)
	core.RegisterCustomTranslation(validate, translator, attStatusTag, attStatusText)
}

// attStatusValidation checks status membership, case-insensitively.
func attStatusValidation(fl validator.FieldLevel) bool {
	return NormalizeStatus(fl.Field().String()).Valid()
}

// NormalizeStatus lowers a raw status value into the canonical form.
func NormalizeStatus(s string) Status {
	return Status(core.CleanString(s, true /* lower */))
}

// ValidateStatus checks that s is one of the four statuses, case-insensitively.
func ValidateStatus(s string) error {
	if s == "" {
		return core.NewValidationError(errStatusRequired, core.FieldError{Field: "status", Error: errStatusRequired.Error()})
	}
	if !NormalizeStatus(s).Valid() {
		return core.NewValidationError(errInvalidStatus, core.FieldError{Field: "status", Error: errInvalidStatus.Error()})
	}
	return nil
}

// ValidateDate checks form, parseability and the marking window. The window is
// evaluated against the caller's current date, not the record's creation date;
// the same call validating today may fail tomorrow, which is intended policy.
func ValidateDate(date string) error {
	newErr := func(err error) error {
		return core.NewValidationError(err, core.FieldError{Field: "date", Error: err.Error()})
	}

	if date == "" {
		return newErr(errDateRequired)
	}
	if !dateRegex.MatchString(date) {
		return newErr(errInvalidDateFmt)
	}
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return newErr(errInvalidDate)
	}

	now := nowFunc().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if d.After(today) {
		return newErr(errFutureDate)
	}
	if d.Before(today.AddDate(0, 0, -maxBackfillDays)) {
		return newErr(errStaleDate)
	}
	return nil
}

// ValidateDateFormat checks form and parseability only. Read paths use this:
// viewing month-old attendance is fine, marking it is not.
func ValidateDateFormat(date string) error {
	newErr := func(err error) error {
		return core.NewValidationError(err, core.FieldError{Field: "date", Error: err.Error()})
	}

	if date == "" {
		return newErr(errDateRequired)
	}
	if !dateRegex.MatchString(date) {
		return newErr(errInvalidDateFmt)
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return newErr(errInvalidDate)
	}
	return nil
}

// ValidateDateRange checks that [start, end] is well-formed and spans at most a year.
func ValidateDateRange(start, end string) error {
	newErr := func(err error) error {
		return core.NewValidationError(err)
	}

	if start == "" || end == "" {
		return newErr(errRangeRequired)
	}
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return newErr(errInvalidRangeFmt)
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return newErr(errInvalidRangeFmt)
	}
	if s.After(e) {
		return newErr(errStartAfterEnd)
	}
	if int(e.Sub(s).Hours()/24) > maxRangeDays {
		return newErr(errRangeTooLarge)
	}
	return nil
}

// CheckDuplicate reports whether a record already exists for the
// (studentID, date, classID, subjectID) key, returning it for upsert.
func CheckDuplicate(store Store, studentID, date, classID string, subjectID null.String) (Record, bool, error) {
	existing, err := store.GetAttendanceByDate(date, classID, subjectID)
	if err != nil {
		return Record{}, false, errors.Wrap(err, "querying attendance by date")
	}
	for _, rec := range existing {
		if rec.StudentID == studentID {
			return rec, true, nil
		}
	}
	return Record{}, false, nil
}
