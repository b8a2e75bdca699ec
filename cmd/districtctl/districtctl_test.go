package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"district-dash/internal/dataset"
	"district-dash/internal/population"

	"github.com/stretchr/testify/require"
)

const twoDistricts = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"boro_cd":"101"},"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}},
 {"type":"Feature","properties":{"boro_cd":"102"},"geometry":{"type":"Polygon","coordinates":[[[1,0],[2,0],[2,1],[1,1],[1,0]]]}}]}`

const populationCSV = "date,boro_cd,population\n2020-08-01,101,40\n2020-09-01,101,50\n2020-09-01,102,75\n"

func fixtures(t *testing.T) (geo, csv string) {
	t.Helper()
	dir := t.TempDir()
	geo = filepath.Join(dir, "cd.geojson")
	csv = filepath.Join(dir, "pop.csv")
	require.NoError(t, os.WriteFile(geo, []byte(twoDistricts), 0o644))
	require.NoError(t, os.WriteFile(csv, []byte(populationCSV), 0o644))
	return geo, csv
}

func TestBuildCacheThenInspect(t *testing.T) {
	geo, csv := fixtures(t)
	out := filepath.Join(t.TempDir(), "cache", "dataset.gob.zst")

	err := runBuildCache(context.Background(), &buildCacheOptions{geojson: geo, idField: "boro_cd", csv: csv, cols: population.DefaultColumns, out: out})
	require.NoError(t, err)

	ds, err := dataset.LoadCacheFile(out)
	require.NoError(t, err)
	var buf bytes.Buffer
	printSummary(&buf, ds)
	require.Contains(t, buf.String(), "regions:   2")
	require.Contains(t, buf.String(), "rows:      3")
	require.Contains(t, buf.String(), "months:    2020-08,2020-09")
}

func TestBuildCacheMissingCSV(t *testing.T) {
	geo, _ := fixtures(t)

	err := runBuildCache(context.Background(), &buildCacheOptions{geojson: geo, csv: filepath.Join(t.TempDir(), "none.csv"), cols: population.DefaultColumns})

	require.ErrorIs(t, err, dataset.ErrSourceUnavailable)
}

func TestImportIntoSQLite(t *testing.T) {
	_, csv := fixtures(t)
	db := filepath.Join(t.TempDir(), "population.db")

	n, err := runImport(context.Background(), &importOptions{csv: csv, cols: population.DefaultColumns, driver: "sqlite", sqlite: db})

	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestImportUnknownDriver(t *testing.T) {
	_, csv := fixtures(t)

	_, err := runImport(context.Background(), &importOptions{csv: csv, cols: population.DefaultColumns, driver: "mysql"})

	require.Error(t, err)
}
