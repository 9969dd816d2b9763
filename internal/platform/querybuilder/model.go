package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// InsertModel builds a single-row insert from the db-tagged exported fields of model.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	cols, vals, err := columnsAndValuesFromModel(model)
	if err != nil {
		return "", nil, err
	}
	return InsertInto(table).
		Columns(cols...).
		Values(vals...).
		Suffix(suffix).
		ToSQL()
}

// InsertModels builds one multi-row insert from a slice of structs sharing one type.
func InsertModels[T any](table string, models []T, suffix string) (string, []any, error) {
	if len(models) == 0 {
		return "", nil, fmt.Errorf("insert into %s: no models", table)
	}

	builder := InsertInto(table).Suffix(suffix)
	for i := range models {
		cols, vals, err := columnsAndValuesFromModel(&models[i])
		if err != nil {
			return "", nil, fmt.Errorf("model %d: %w", i, err)
		}
		if i == 0 {
			builder.Columns(cols...)
		}
		builder.Values(vals...)
	}
	return builder.ToSQL()
}

// Chunk splits models so each chunk binds at most maxBindParams parameters.
func Chunk[T any](models []T, columnsPerRow int) [][]T {
	if len(models) == 0 {
		return nil
	}
	size := len(models)
	if columnsPerRow > 0 {
		size = maxBindParams / columnsPerRow
	}
	if size <= 0 {
		size = 1
	}

	out := make([][]T, 0, len(models)/size+1)
	for start := 0; start < len(models); start += size {
		end := min(start+size, len(models))
		out = append(out, models[start:end])
	}
	return out
}

// ColumnCount returns the number of db-tagged columns of a model type.
func ColumnCount(model any) int {
	cols, _, err := columnsAndValuesFromModel(model)
	if err != nil {
		return 0
	}
	return len(cols)
}

func columnsAndValuesFromModel(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be struct")
	}

	typ := value.Type()
	cols := make([]string, 0, typ.NumField())
	vals := make([]any, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.PkgPath != "" {
			continue
		}
		col := strings.TrimSpace(strings.Split(field.Tag.Get("db"), ",")[0])
		if col == "" || col == "-" {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, value.Field(i).Interface())
	}

	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("model has no db columns")
	}
	return cols, vals, nil
}
