package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/shuleni/mahudhurio/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	SchoolID     string         `db:"school_id"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    time.Time      `db:"last_login"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email,
		SchoolID:     r.SchoolID,
		IsActive:     r.IsActive,
		Roles:        r.Roles,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin,
	}
}

const userColumns = `id, name, username, email, school_id, is_active, roles, password_hash,
	created_at, updated_at, last_login`

func (repo *userRepository) CheckUsernameUniqueness(username, email string) error {
	var exists bool
	err := repo.db.QueryRowx(
		`SELECT EXISTS (SELECT 1 FROM app_user WHERE username = $1 OR (email <> '' AND email = $2))`,
		username, email,
	).Scan(&exists)
	if err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	if exists {
		return user.ErrUsernameExists
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	_, err := repo.db.Exec(
		`INSERT INTO app_user (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		usr.ID, usr.Name, usr.Username, usr.Email, usr.SchoolID, usr.IsActive,
		pq.StringArray(usr.Roles), usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt, usr.LastLogin,
	)
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	var rows []userRow
	if err := repo.db.Select(&rows, `SELECT `+userColumns+` FROM app_user ORDER BY created_at`); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users, nil
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	return getUserByID(repo.db, id)
}

func (repo *userRepository) GetUserByUsernameOrEmail(username string) (user.User, error) {
	var row userRow
	err := repo.db.Get(&row,
		`SELECT `+userColumns+` FROM app_user WHERE username = $1 OR (email <> '' AND email = $1)`, username)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) SetLastLogin(usr user.User) (user.User, error) {
	res, err := repo.db.Exec(`UPDATE app_user SET last_login = $2 WHERE id = $1`, usr.ID, usr.LastLogin)
	if err != nil {
		return user.User{}, errors.Wrap(err, "setting last login")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return getUserByID(repo.db, usr.ID)
}

func getUserByID(db *sqlx.DB, id string) (user.User, error) {
	var row userRow
	err := db.Get(&row, `SELECT `+userColumns+` FROM app_user WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}
