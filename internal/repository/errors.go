// Package repository holds the MySQL access for users, posts, events,
// directory listings and password reset tokens. The sentinel values below
// let handlers tell failure cases apart: ErrNotFound maps to 404,
// ErrEmailExists and ErrUsernameExists to 409, ErrForbidden to 403.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/sylvester-francis/atcc-interview-test/internal/apperr"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = apperr.ErrNotFound

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.
var ErrForbidden = errors.New("forbidden")

var (
	ErrEmailExists    = errors.New("email already exists")
	ErrUsernameExists = errors.New("username already exists")
	// ErrSlugConflict means the slug kept colliding with concurrent
	// writers after every retry.
	ErrSlugConflict = errors.New("slug conflict")
)

const errDuplicateEntry = 1062

// duplicateKey reports whether err is a MySQL duplicate entry error and
// returns the index name it names, e.g. "uq_blogs_slug".
func duplicateKey(err error) (string, bool) {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		if me.Number != errDuplicateEntry {
			return "", false
		}
		return keyName(me.Message), true
	}
	if err != nil && strings.Contains(err.Error(), "1062") {
		return keyName(err.Error()), true
	}
	return "", false
}

// keyName extracts the index from "... for key 'blogs.uq_blogs_slug'".
func keyName(msg string) string {
	i := strings.LastIndex(msg, "for key '")
	if i < 0 {
		return ""
	}
	k := strings.TrimSuffix(msg[i+len("for key '"):], "'")
	if j := strings.LastIndex(k, "."); j >= 0 {
		k = k[j+1:]
	}
	return k
}
