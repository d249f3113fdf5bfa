package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Common database error types that can be used by consumers of this package.
// These provide a standardized set of errors that abstract away the
// underlying database-specific error details.
var (
	// ErrRecordNotFound is returned when a query doesn't find any matching records
	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when an insert or update violates a unique constraint
	ErrDuplicateKey = errors.New("duplicate key violation")

	// ErrForeignKey is returned when an operation violates a foreign key constraint
	ErrForeignKey = errors.New("foreign key violation")

	// ErrInvalidData is returned when the data being saved doesn't meet validation rules
	ErrInvalidData = errors.New("invalid data")

	// ErrConnectionFailed is returned when there is no usable connection
	ErrConnectionFailed = errors.New("database connection failed")
)

// PostgreSQL SQLSTATE codes translated by TranslateError.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
	codeCheckViolation      = "23514"
	codeInvalidText         = "22P02"
	codeAdminShutdown       = "57P01"
)

// TranslateError converts GORM/database-specific errors into standardized application errors.
// This function provides abstraction from the underlying database implementation details,
// allowing application code to handle errors in a database-agnostic way.
//
// If an error doesn't match any known type, it's returned unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrRecordNotFound), errors.Is(err, ErrDuplicateKey),
		errors.Is(err, ErrForeignKey), errors.Is(err, ErrInvalidData),
		errors.Is(err, ErrConnectionFailed):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrForeignKey
	case errors.Is(err, gorm.ErrInvalidData):
		return ErrInvalidData
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return ErrDuplicateKey
		case codeForeignKeyViolation:
			return ErrForeignKey
		case codeNotNullViolation, codeCheckViolation, codeInvalidText:
			return ErrInvalidData
		case codeAdminShutdown:
			return ErrConnectionFailed
		}
		// Class 08 is connection exceptions
		if strings.HasPrefix(pgErr.Code, "08") {
			return ErrConnectionFailed
		}
		return err
	}

	if pgconn.Timeout(err) {
		return ErrConnectionFailed
	}

	return err
}

// IsConnectionError reports whether err means the database could not be reached.
func IsConnectionError(err error) bool {
	return errors.Is(TranslateError(err), ErrConnectionFailed)
}
