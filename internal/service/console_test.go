package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terramap/api/internal/auth"
	"terramap/api/internal/models"
)

func TestOpenConsoleRequiresAdmin(t *testing.T) {
	_, err := OpenConsole(auth.Anonymous, nil)
	assert.True(t, errors.Is(err, ErrDenied))

	_, err = OpenConsole(auth.NewIdentity("u1", models.RoleUser), nil)
	assert.True(t, errors.Is(err, ErrDenied))

	console, err := OpenConsole(auth.NewIdentity("u1", models.RoleAdmin), nil)
	require.NoError(t, err)
	assert.NotNil(t, console)
}

func TestSingleStatement(t *testing.T) {
	tests := []struct {
		name      string
		statement string
		want      string
		wantErr   bool
	}{
		{"plain", "SELECT 1", "SELECT 1", false},
		{"trailing terminator", "SELECT 1;", "SELECT 1", false},
		{"terminator with whitespace", "  SELECT 1 ;  ", "SELECT 1", false},
		{"stacked statements", "SELECT 1; DROP TABLE users", "", true},
		{"stacked with terminator", "SELECT 1; DELETE FROM users;", "", true},
		{"only terminator", ";", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := singleStatement(tt.statement)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSingleStatementErrorKind(t *testing.T) {
	_, err := singleStatement("SELECT 1; SELECT 2")
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Contains(t, execErr.Message, "multiple statements")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		statement string
		want      StatementKind
	}{
		{"SELECT * FROM users", KindRead},
		{"select 1", KindRead},
		{"  SHOW server_version", KindRead},
		{"DESCRIBE users", KindRead},
		{"desc users", KindRead},
		{"EXPLAIN SELECT 1", KindRead},
		{"(SELECT 1)", KindRead},
		{"INSERT INTO users VALUES (1)", KindWrite},
		{"UPDATE users SET role = 'admin'", KindWrite},
		{"DELETE FROM users", KindWrite},
		{"CREATE TABLE t (id int)", KindWrite},
		{"DROP TABLE t", KindWrite},
		{"WITH x AS (SELECT 1) SELECT * FROM x", KindWrite},
	}

	for _, tt := range tests {
		t.Run(tt.statement, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.statement))
		})
	}
}

func TestIsInsert(t *testing.T) {
	assert.True(t, isInsert("INSERT INTO t VALUES (1)"))
	assert.True(t, isInsert("insert into t values (1)"))
	assert.False(t, isInsert("UPDATE t SET a = 1"))
	assert.False(t, isInsert("SELECT 1"))
}

func TestExecutionErrorFormat(t *testing.T) {
	err := &ExecutionError{Message: "relation \"missing\" does not exist", Code: "42P01"}
	assert.Contains(t, err.Error(), "42P01")

	err = &ExecutionError{Message: "no code"}
	assert.Equal(t, "no code", err.Error())
}
