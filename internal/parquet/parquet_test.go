package parquet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_ToGoParquetSchema(t *testing.T) {
	s := StringSchema([]string{"id", "vendor_id"})
	assert.Equal(t, []string{
		"name=id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL",
		"name=vendor_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL",
	}, s.ToGoParquetSchema())

	assert.Equal(t, []string{"name=n, type=INT64"}, Schema{{Name: "n", Type: "INT64"}}.ToGoParquetSchema())
}

func TestConverter_Convert(t *testing.T) {
	t.Run("valid csv", func(t *testing.T) {
		in := "id,name,vendor_id\r\n1,Apple,v-1\r\n2,,v-1\r\n"
		var out bytes.Buffer

		rows, err := New(StringSchema([]string{"id", "name", "vendor_id"})).
			Convert(strings.NewReader(in), &out)
		require.NoError(t, err)
		assert.Equal(t, 2, rows)

		bs := out.Bytes()
		require.Greater(t, len(bs), 8)
		assert.Equal(t, "PAR1", string(bs[:4]))
		assert.Equal(t, "PAR1", string(bs[len(bs)-4:]))
	})

	t.Run("header only", func(t *testing.T) {
		var out bytes.Buffer
		rows, err := New(StringSchema([]string{"id"})).Convert(strings.NewReader("id\r\n"), &out)
		require.NoError(t, err)
		assert.Equal(t, 0, rows)
		assert.Equal(t, "PAR1", string(out.Bytes()[:4]))
	})

	t.Run("header mismatch", func(t *testing.T) {
		var out bytes.Buffer
		_, err := New(StringSchema([]string{"id", "name"})).Convert(strings.NewReader("name,id\r\n"), &out)
		assert.ErrorIs(t, err, ErrHeaderMismatch)
	})

	t.Run("empty input", func(t *testing.T) {
		var out bytes.Buffer
		_, err := New(StringSchema([]string{"id"})).Convert(strings.NewReader(""), &out)
		assert.Error(t, err)
	})
}
