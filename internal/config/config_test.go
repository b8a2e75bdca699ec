package config

import (
	"path/filepath"
	"testing"

	"district-dash/internal/population"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, k := range []string{"ADDR", "API_BASE", "DATA_MODE", "GEOJSON_PATH", "MAP_MONTH", "BAR_FROM_MONTH", "DEFAULT_DISTRICT", "RANDOM_SEED", "POP_SOURCE", "RATE_LIMIT_QPS"} {
		t.Setenv(k, "")
	}

	c, err := Load()

	require.NoError(t, err)
	require.Equal(t, ":8050", c.Addr)
	require.Equal(t, "/api", c.APIBase)
	require.Equal(t, "demo", c.DataMode)
	require.Equal(t, filepath.Join("data", "Community Districts.geojson"), c.GeoJSONPath)
	require.Equal(t, population.MustMonth("2020-09"), c.MapMonth)
	require.Equal(t, population.MustMonth("2020-03"), c.BarFromMonth)
	require.Equal(t, "109", c.DefaultDistrict)
	require.Equal(t, population.DefaultColumns, c.PopColumns)
	require.False(t, c.TLSEnable)
}

func TestOverrides(t *testing.T) {
	t.Setenv("API_BASE", "/dash/")
	t.Setenv("DATA_MODE", "CACHE")
	t.Setenv("MAP_MONTH", "2021-01")
	t.Setenv("RANDOM_SEED", "7")
	t.Setenv("POP_DISTRICT_COL", "cd")

	c, err := Load()

	require.NoError(t, err)
	require.Equal(t, "/dash", c.APIBase)
	require.Equal(t, "cache", c.DataMode)
	require.Equal(t, "2021-01", c.MapMonth.String())
	require.Equal(t, int64(7), c.RandomSeed)
	require.Equal(t, "cd", c.PopColumns.District)
}

func TestMalformedValues(t *testing.T) {
	cases := map[string]string{
		"MAP_MONTH":      "September",
		"BAR_FROM_MONTH": "20-03",
		"RANDOM_SEED":    "abc",
		"RATE_LIMIT_QPS": "0",
		"DATA_MODE":      "pickle",
		"POP_SOURCE":     "mysql",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)

			_, err := Load()

			require.ErrorContains(t, err, k)
		})
	}
}
