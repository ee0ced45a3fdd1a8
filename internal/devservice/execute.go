package devservice

import (
	"context"
	"fmt"
	"time"

	"github.com/leapstack-labs/queryconsole/internal/hql"
	"github.com/leapstack-labs/queryconsole/pkg/core"
)

// runPage counts the statement's rows, then fetches one page of them.
func runPage(ctx context.Context, adp core.Adapter, stmt *hql.Statement, pageNumber, pageSize int) *core.DataSet {
	total, err := count(ctx, adp, stmt)
	if err != nil {
		return core.ErrorDataSet(err.Error())
	}

	rows, err := adp.Query(ctx, stmt.PageSQL(pageNumber, pageSize))
	if err != nil {
		return core.ErrorDataSet(err.Error())
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return core.ErrorDataSet(fmt.Sprintf("failed to read columns: %v", err))
	}

	data := make([]core.Record, 0, pageSize)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return core.ErrorDataSet(fmt.Sprintf("failed to scan row: %v", err))
		}
		rec := make(core.Record, len(cols))
		for i, col := range cols {
			rec[col] = normalize(values[i])
		}
		data = append(data, rec)
	}
	if err := rows.Err(); err != nil {
		return core.ErrorDataSet(err.Error())
	}

	return &core.DataSet{
		Data:                  data,
		TotalNumberOfElements: total,
		Cols:                  cols,
	}
}

func count(ctx context.Context, adp core.Adapter, stmt *hql.Statement) (int64, error) {
	rows, err := adp.Query(ctx, stmt.CountSQL())
	if err != nil {
		return 0, err
	}
	defer func() { _ = rows.Close() }()

	var total int64
	if rows.Next() {
		if err := rows.Scan(&total); err != nil {
			return 0, fmt.Errorf("failed to read row count: %w", err)
		}
	}
	return total, rows.Err()
}

// normalize converts driver values into JSON-friendly ones.
func normalize(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return v
	}
}
