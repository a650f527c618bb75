package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	unique := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"}
	fk := &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "users_email_key"}

	assert.True(t, IsUniqueViolation(unique, ""))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", unique), "users_email_key"))
	assert.False(t, IsUniqueViolation(unique, "courses_slug_key"))
	assert.False(t, IsUniqueViolation(fk, ""))
	assert.False(t, IsUniqueViolation(errors.New("plain"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}

func TestMigrateDSN(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pgx5://u:p@localhost:5432/db", MigrateDSN("postgres://u:p@localhost:5432/db"))
	assert.Equal(t, "pgx5://u:p@localhost/db", MigrateDSN("postgresql://u:p@localhost/db"))
	assert.Equal(t, "pgx5://already", MigrateDSN("pgx5://already"))
}
