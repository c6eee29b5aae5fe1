package source

import (
	"context"
	"database/sql"

	"go.eggybyte.com/bindx/core/errors"
)

type sqlLoader struct {
	db    *sql.DB
	query string
	args  []any
}

// SQL returns a loader running query against db. The first result column is
// the key and the second the value; further columns are ignored. Rows with a
// NULL key are skipped and a NULL value loads as an empty string.
func SQL(db *sql.DB, query string, args ...any) Loader {
	return &sqlLoader{db: db, query: query, args: args}
}

func (l *sqlLoader) Load(ctx context.Context) (map[string]string, error) {
	rows, err := l.db.QueryContext(ctx, l.query, l.args...)
	if err != nil {
		return nil, errors.Wrap(errors.CodeSource, "source.SQL", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(errors.CodeSource, "source.SQL", err)
	}
	if len(columns) < 2 {
		return nil, errors.Newf(errors.CodeSource, "query returns %d column(s), need key and value", len(columns))
	}

	var key, value sql.NullString
	dest := make([]any, len(columns))
	dest[0], dest[1] = &key, &value
	for i := 2; i < len(dest); i++ {
		dest[i] = new(sql.RawBytes)
	}

	config := make(map[string]string)
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(errors.CodeSource, "source.SQL", err)
		}
		if !key.Valid {
			continue
		}
		config[key.String] = value.String
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.CodeSource, "source.SQL", err)
	}

	return config, nil
}
