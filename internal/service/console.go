package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"terramap/api/internal/auth"
)

// StatementKind classifies an ad-hoc statement by its leading keyword.
type StatementKind string

const (
	KindRead  StatementKind = "read"
	KindWrite StatementKind = "write"
)

// Console executes single ad-hoc statements against the store. It is a
// deliberately raw pass-through, so it can only be constructed for an admin
// identity and is never handed out as a general store accessor.
type Console struct {
	pool *pgxpool.Pool
}

func OpenConsole(identity auth.Identity, pool *pgxpool.Pool) (*Console, error) {
	if !identity.Admin() {
		return nil, ErrDenied
	}
	return &Console{pool: pool}, nil
}

type QueryResult struct {
	Kind         StatementKind
	Columns      []string
	Rows         []map[string]any
	RowCount     int
	AffectedRows int64
	LastInsertID *int64
}

type ColumnInfo struct {
	Name     string  `json:"name"`
	DataType string  `json:"data_type"`
	Nullable string  `json:"nullable"`
	Default  *string `json:"default"`
}

// Execute runs one statement. Reads come back as ordered column→value rows;
// writes report affected rows and, after an INSERT, the new row id when the
// store can supply one.
func (c *Console) Execute(ctx context.Context, statement string) (QueryResult, error) {
	statement = strings.TrimSpace(statement)
	if statement == "" {
		return QueryResult{}, invalidf("statement is required")
	}

	body, err := singleStatement(statement)
	if err != nil {
		return QueryResult{}, err
	}

	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return QueryResult{}, execError(err)
	}
	defer conn.Release()

	if classify(body) == KindRead {
		return c.executeRead(ctx, conn, body)
	}
	return c.executeWrite(ctx, conn, body)
}

func (c *Console) executeRead(ctx context.Context, conn *pgxpool.Conn, body string) (QueryResult, error) {
	rows, err := conn.Query(ctx, body)
	if err != nil {
		return QueryResult{}, execError(err)
	}
	defer rows.Close()

	result := QueryResult{Kind: KindRead}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return QueryResult{}, execError(err)
		}

		fields := rows.FieldDescriptions()
		if result.Columns == nil {
			result.Columns = make([]string, 0, len(fields))
			for _, fd := range fields {
				result.Columns = append(result.Columns, fd.Name)
			}
		}

		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			row[fd.Name] = values[i]
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return QueryResult{}, execError(err)
	}

	result.RowCount = len(result.Rows)
	return result, nil
}

func (c *Console) executeWrite(ctx context.Context, conn *pgxpool.Conn, body string) (QueryResult, error) {
	tag, err := conn.Exec(ctx, body)
	if err != nil {
		return QueryResult{}, execError(err)
	}

	result := QueryResult{Kind: KindWrite, AffectedRows: tag.RowsAffected()}

	if isInsert(body) {
		// Only meaningful when the insert touched a sequence; textual ids
		// leave lastval unset and the field is simply omitted.
		var last int64
		if err := conn.QueryRow(ctx, "SELECT lastval()").Scan(&last); err == nil {
			result.LastInsertID = &last
		}
	}
	return result, nil
}

// ListTables is a read-only variant of the same execution surface.
func (c *Console) ListTables(ctx context.Context) ([]string, error) {
	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, execError(err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, execError(err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, execError(err)
	}
	return tables, nil
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (c *Console) DescribeTable(ctx context.Context, table string) ([]ColumnInfo, error) {
	if !identifierPattern.MatchString(table) {
		return nil, invalidf("invalid table name")
	}

	const query = `
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position
	`

	rows, err := c.pool.Query(ctx, query, table)
	if err != nil {
		return nil, execError(err)
	}
	defer rows.Close()

	var columns []ColumnInfo
	for rows.Next() {
		var col ColumnInfo
		if err := rows.Scan(&col.Name, &col.DataType, &col.Nullable, &col.Default); err != nil {
			return nil, execError(err)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, execError(err)
	}
	if len(columns) == 0 {
		return nil, ErrNotFound
	}
	return columns, nil
}

// singleStatement strips one trailing terminator and rejects anything that
// still contains a ';'. This is the guard against statement stacking through
// the console.
func singleStatement(statement string) (string, error) {
	body := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(statement), ";"))
	if strings.Contains(body, ";") {
		return "", &ExecutionError{Message: "multiple statements are not allowed"}
	}
	if body == "" {
		return "", invalidf("statement is required")
	}
	return body, nil
}

func classify(statement string) StatementKind {
	switch leadingKeyword(statement) {
	case "SELECT", "SHOW", "DESCRIBE", "DESC", "EXPLAIN":
		return KindRead
	}
	return KindWrite
}

func isInsert(statement string) bool {
	return leadingKeyword(statement) == "INSERT"
}

func leadingKeyword(statement string) string {
	fields := strings.Fields(statement)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(strings.TrimLeft(fields[0], "("))
}

func execError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &ExecutionError{Message: pgErr.Message, Code: pgErr.Code}
	}
	return &ExecutionError{Message: fmt.Sprintf("statement failed: %v", err)}
}
