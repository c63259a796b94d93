package database

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ColumnInfo matches the output of SHOW COLUMNS.
type ColumnInfo struct {
	Field   string
	Type    string
	Null    string
	Key     string
	Default *string // Pointer because NULL default is possible
	Extra   string
}

// IsPrimary reports whether the column is part of the primary key.
func (c ColumnInfo) IsPrimary() bool {
	return c.Key == "PRI"
}

// GetTableColumns retrieves the column definitions for a given table, in
// table order. A table that does not exist yields no columns on sqlite and
// an error on mysql.
func GetTableColumns(ctx context.Context, db *gorm.DB, tableName string) ([]ColumnInfo, error) {
	var columns []ColumnInfo
	db = db.WithContext(ctx)

	if db.Dialector.Name() == "sqlite" {
		type sqliteColumn struct {
			Cid       int
			Name      string
			Type      string
			Notnull   int
			DfltValue *string
			Pk        int
		}
		var sqliteCols []sqliteColumn
		err := db.Raw("SELECT cid, name, type, `notnull`, dflt_value, pk FROM pragma_table_info(?) ORDER BY cid", tableName).
			Scan(&sqliteCols).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
		}
		for _, col := range sqliteCols {
			info := ColumnInfo{
				Field:   col.Name,
				Type:    strings.ToLower(col.Type),
				Null:    "YES",
				Default: col.DfltValue,
			}
			if col.Notnull != 0 {
				info.Null = "NO"
			}
			if col.Pk > 0 {
				info.Key = "PRI"
			}
			columns = append(columns, info)
		}
		return columns, nil
	}

	err := db.Raw("SHOW COLUMNS FROM ?", clause.Table{Name: tableName}).Scan(&columns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
	}
	// Normalize types to lowercase
	for i := range columns {
		columns[i].Type = strings.ToLower(columns[i].Type)
	}
	return columns, nil
}

// PrimaryKey returns the primary key columns of a table, in table order.
func PrimaryKey(columns []ColumnInfo) []string {
	var keys []string
	for _, c := range columns {
		if c.IsPrimary() {
			keys = append(keys, c.Field)
		}
	}
	return keys
}
