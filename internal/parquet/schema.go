package parquet

import (
	"fmt"
	"strings"
)

const (
	TypeByteArray      = "BYTE_ARRAY"
	ConvertedTypeUTF8  = "UTF8"
	RepetitionOptional = "OPTIONAL"
)

type Field struct {
	Name           string
	Type           string
	ConvertedType  string
	RepetitionType string
}

type Schema []Field

// StringSchema maps every column to an optional UTF8 string. CSV cells
// carry no type information so this is the only lossless mapping.
func StringSchema(columns []string) Schema {
	s := make(Schema, len(columns))
	for i, c := range columns {
		s[i] = Field{
			Name:           c,
			Type:           TypeByteArray,
			ConvertedType:  ConvertedTypeUTF8,
			RepetitionType: RepetitionOptional,
		}
	}
	return s
}

func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

func (s Schema) ToGoParquetSchema() []string {
	schema := make([]string, len(s))
	for i, field := range s {
		parts := []string{
			fmt.Sprintf("name=%s", field.Name),
			fmt.Sprintf("type=%s", field.Type),
		}
		if field.ConvertedType != "" {
			parts = append(parts, fmt.Sprintf("convertedtype=%s", field.ConvertedType))
		}
		if field.RepetitionType != "" {
			parts = append(parts, fmt.Sprintf("repetitiontype=%s", field.RepetitionType))
		}
		schema[i] = strings.Join(parts, ", ")
	}

	return schema
}
