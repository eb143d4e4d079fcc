package core

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var sqlIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQLSource loads one dataset from MySQL or PostgreSQL. It reads Table, or runs Query
// when set, and keeps rows whose columns equal Params.
type SQLSource struct {
	DB         *sql.DB
	DriverName string // "mysql" or "postgres"
	Table      string
	Query      string
	Params     map[string]string
}

func NewSQLSource(db *sql.DB, driverName, table, query string, params map[string]string) *SQLSource {
	return &SQLSource{DB: db, DriverName: driverName, Table: table, Query: query, Params: params}
}

// buildQuery returns the statement and its arguments. Filter columns are sorted so the
// placeholder numbering is stable.
func (s *SQLSource) buildQuery() (string, []interface{}, error) {
	base := s.Query
	if base == "" {
		if !sqlIdentifier.MatchString(s.Table) {
			return "", nil, fmt.Errorf("invalid table name %q", s.Table)
		}
		base = fmt.Sprintf("SELECT * FROM %s", s.Table)
	} else {
		base = fmt.Sprintf("SELECT * FROM (%s) AS src", strings.TrimSuffix(strings.TrimSpace(base), ";"))
	}
	if len(s.Params) == 0 {
		return base, nil, nil
	}

	keys := make([]string, 0, len(s.Params))
	for k := range s.Params {
		if !sqlIdentifier.MatchString(k) {
			return "", nil, fmt.Errorf("invalid filter column %q", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conditions := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys))
	for i, k := range keys {
		if s.DriverName == "postgres" {
			conditions = append(conditions, fmt.Sprintf("%s = $%d", k, i+1))
		} else {
			conditions = append(conditions, fmt.Sprintf("%s = ?", k))
		}
		args = append(args, s.Params[k])
	}
	return base + " WHERE " + strings.Join(conditions, " AND "), args, nil
}

func (s *SQLSource) name() string {
	if s.Table != "" {
		return s.Table
	}
	return "query"
}

func (s *SQLSource) Load(ctx context.Context) ([]*Sheet, error) {
	query, args, err := s.buildQuery()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	var records []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		entry := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			// MySQL returns text columns as []byte
			if b, ok := values[i].([]byte); ok {
				entry[col] = string(b)
			} else {
				entry[col] = values[i]
			}
		}
		records = append(records, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return []*Sheet{recordsToSheet(s.name(), columns, records)}, nil
}
