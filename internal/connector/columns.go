package connector

import (
	"context"
	"fmt"

	"github.com/faucetdb/crudgen/internal/model"
)

// SplitForeignKeys separates foreign-key columns from plain columns. The
// returned columns keep their original order; a column is dropped only when
// it is the source column of a foreign key, so primary keys stay. The map
// holds one entry per foreign-key column, pointing at the referenced table.
func SplitForeignKeys(columns []string, fks []model.ForeignKey) ([]string, map[string]string) {
	relationships := make(map[string]string, len(fks))
	for _, fk := range fks {
		relationships[fk.ColumnName] = fk.ReferencedTable
	}

	plain := make([]string, 0, len(columns))
	for _, col := range columns {
		if _, isFK := relationships[col]; isFK {
			continue
		}
		plain = append(plain, col)
	}
	return plain, relationships
}

// FetchTableColumns describes a table and splits its foreign-key columns out
// of the column list. The table is assumed to exist; driver errors are
// returned wrapped.
func FetchTableColumns(ctx context.Context, conn Connector, tableName string) (model.ColumnSet, error) {
	columns, err := conn.DescribeColumns(ctx, tableName)
	if err != nil {
		return model.ColumnSet{}, fmt.Errorf("describe %q: %w", tableName, err)
	}

	fks, err := conn.ForeignKeys(ctx, tableName)
	if err != nil {
		return model.ColumnSet{}, fmt.Errorf("foreign keys of %q: %w", tableName, err)
	}

	plain, relationships := SplitForeignKeys(columns, fks)
	return model.ColumnSet{
		Table:         tableName,
		Columns:       plain,
		Relationships: relationships,
	}, nil
}
