package catalog

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Shop(t *testing.T) {
	var c Catalog
	c.Shop("v-1", "CZ").NumRecords += 2
	c.Shop("v-2", "SK").NumRecords++
	c.Shop("v-1", "CZ").NumPages++

	require.Len(t, c.Shops, 2)
	assert.Equal(t, Shop{VendorID: "v-1", Country: "CZ", NumPages: 1, NumRecords: 2}, c.Shops[0])
}

func TestCatalog_JSON(t *testing.T) {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c := Catalog{
		RunID:     "run",
		StartTime: start,
		EndTime:   start.Add(time.Minute),
		Completed: true,
	}
	assert.Equal(t, time.Minute, c.Duration())

	bs, err := json.Marshal(c)
	require.NoError(t, err)

	var out Catalog
	require.NoError(t, json.Unmarshal(bs, &out))
	assert.Equal(t, c.RunID, out.RunID)
	assert.True(t, out.Completed)
	assert.NotContains(t, string(bs), `"error"`)
}
