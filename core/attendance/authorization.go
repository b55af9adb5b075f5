package attendance

import (
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/shuleni/mahudhurio/core/school"
	"github.com/shuleni/mahudhurio/core/user"
)

// CanMark decides whether the acting user may write attendance for the
// (class, subject-or-none) context. It is a pure decision with no side
// effects; producing the access-denied response is the caller's job.
//
// Daily mode (no subject): only the class's incharge teacher may mark.
// Subject-wise mode: only the subject's assigned teacher may mark.
// Admins bypass this check at the caller level, never in here.
func (svc *Service) CanMark(actorID, classID string, subjectID null.String) (bool, error) {
	actor, err := svc.store.GetUserByID(actorID)
	if err != nil {
		if err == user.ErrNotFound {
			return false, nil
		}
		return false, errors.Wrap(err, "resolving acting user")
	}
	if !actor.IsTeacher() {
		return false, nil
	}

	cls, err := svc.store.GetClassByID(classID)
	if err != nil {
		if err == school.ErrClassNotFound {
			return false, nil
		}
		return false, errors.Wrap(err, "resolving class")
	}
	if actor.SchoolID != cls.SchoolID {
		return false, nil
	}

	if !subjectID.Valid {
		return cls.TeacherID == actorID, nil
	}

	sub, err := svc.store.GetSubjectByID(subjectID.String)
	if err != nil {
		if err == school.ErrSubjectNotFound {
			return false, nil
		}
		return false, errors.Wrap(err, "resolving subject")
	}
	return sub.TeacherID == actorID, nil
}
