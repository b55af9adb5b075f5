package inmemdb

import (
	"sync"

	"github.com/shuleni/mahudhurio/core/attendance"
	"github.com/shuleni/mahudhurio/core/school"
	"github.com/shuleni/mahudhurio/core/user"
)

// DB is an in-memory database. A single lock covers all tables, so the
// duplicate-check-then-write sequence of the attendance core is effectively
// serialized and the record key stays unique under concurrent writers.
type DB struct {
	mutex sync.RWMutex

	users      map[string]*user.User
	schools    map[string]*school.School
	classes    map[string]*school.ClassRoom
	students   map[string]*school.Student
	subjects   map[string]*school.Subject
	attendance map[string]*attendance.Record
}

func Open() (*DB, error) {
	db := &DB{
		users:      make(map[string]*user.User),
		schools:    make(map[string]*school.School),
		classes:    make(map[string]*school.ClassRoom),
		students:   make(map[string]*school.Student),
		subjects:   make(map[string]*school.Subject),
		attendance: make(map[string]*attendance.Record),
	}
	return db, nil
}
