package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Error carries a client-facing message and a sentinel kind for errors.Is.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func notFound(format string, args ...interface{}) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...interface{}) error {
	return &Error{Kind: ErrInvalidArgument, Msg: fmt.Sprintf(format, args...)}
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// sqlite result codes; extended codes distinguish unique and primary key
// violations from the generic constraint code.
const (
	sqliteConstraint           = 19
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

// isDuplicateKey reports a unique constraint violation. Postgres and mysql
// errors arrive translated; the pure-go sqlite driver exposes only its code.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		switch coded.Code() {
		case sqliteConstraintPrimaryKey, sqliteConstraintUnique:
			return true
		case sqliteConstraint:
			return strings.Contains(err.Error(), "UNIQUE constraint failed")
		}
	}
	return false
}

func emailTaken(email string) error {
	return &Error{Kind: ErrEmailTaken, Msg: fmt.Sprintf("Email %s is already registered.", email)}
}

// StatusResult is the common {success, message} reply.
type StatusResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
