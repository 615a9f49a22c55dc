// Derives the schema header of a table file from its prototype row.

package jsonldb

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
)

var errSchemaVersionRequired = errors.New("schema version is required")

// currentVersion is the current version of the JSONL table format.
const currentVersion = "1.0"

type columnType string

const (
	columnTypeText   columnType = "text"
	columnTypeNumber columnType = "number"
	columnTypeBool   columnType = "bool"
	columnTypeDate   columnType = "date"
	columnTypeJSONB  columnType = "jsonb"
)

type column struct {
	Name        string     `json:"name"`
	Type        columnType `json:"type"`
	Required    bool       `json:"required,omitempty"`
	Description string     `json:"description,omitempty"`
}

// schemaHeader is the first line of a table file.
type schemaHeader struct {
	Version string   `json:"version"`
	Table   string   `json:"table"`
	Columns []column `json:"columns,omitempty"`
	// LastID is the highest id ever assigned in the table. Ids of deleted
	// rows stay retired across restarts.
	LastID int64 `json:"last_id,omitempty"`
}

// Validate checks that the schema header is well-formed.
func (h *schemaHeader) Validate() error {
	if h.Version == "" {
		return errSchemaVersionRequired
	}
	for i, col := range h.Columns {
		if col.Name == "" {
			return fmt.Errorf("column %d: name is required", i)
		}
		if col.Type == "" {
			return fmt.Errorf("column %d: type is required", i)
		}
	}
	return nil
}

// columnsFromRow extracts column definitions from a struct prototype using
// JSON Schema reflection. A nil row yields no columns.
func columnsFromRow(row any) ([]column, error) {
	if row == nil {
		return nil, nil
	}
	t := reflect.TypeOf(row)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("row prototype must be a struct, got %s", t.Kind())
	}

	r := jsonschema.Reflector{Anonymous: true, DoNotReference: true}
	schema := r.ReflectFromType(t)
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	var columns []column
	for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		colType := columnTypeText
		for i := range t.NumField() {
			field := t.Field(i)
			if jsonFieldName(&field) == pair.Key {
				colType = goTypeToColumnType(field.Type)
				break
			}
		}
		columns = append(columns, column{
			Name:        pair.Key,
			Type:        colType,
			Required:    required[pair.Key],
			Description: pair.Value.Description,
		})
	}
	return columns, nil
}

func jsonFieldName(field *reflect.StructField) string {
	tag := field.Tag.Get("json")
	name, _, _ := strings.Cut(tag, ",")
	if name == "" || name == "-" {
		return field.Name
	}
	return name
}

func goTypeToColumnType(t reflect.Type) columnType {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == reflect.TypeFor[time.Time]() {
		return columnTypeDate
	}
	if t.Kind() == reflect.Struct && t.NumField() == 1 && t.Field(0).Anonymous && t.Field(0).Type == reflect.TypeFor[time.Time]() {
		return columnTypeDate
	}
	switch t.Kind() {
	case reflect.Bool:
		return columnTypeBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return columnTypeNumber
	case reflect.Struct, reflect.Slice, reflect.Array, reflect.Map:
		return columnTypeJSONB
	default:
		return columnTypeText
	}
}
