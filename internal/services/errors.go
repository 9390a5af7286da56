package services

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound          = errors.New("target not found")
	ErrInvalidVoteType   = errors.New("vote type must be upvote or downvote")
	ErrInvalidTargetKind = errors.New("unknown target kind")
	ErrAlreadyBookmarked = errors.New("already bookmarked")
	ErrForbidden         = errors.New("you do not have permission to perform this action")
)

// isUniqueViolation reports whether err is a postgres unique-constraint
// violation (SQLSTATE 23505). Votes and bookmarks racing on the same
// (user, target) pair hit this and get retried as a re-read.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
