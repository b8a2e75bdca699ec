package main

import (
	"context"
	"fmt"

	"district-dash/internal/boundary"
	"district-dash/internal/dataset"
	"district-dash/internal/logger"
	"district-dash/internal/population"
	"district-dash/internal/utils"

	"github.com/spf13/cobra"
)

type buildCacheOptions struct {
	geojson  string
	idField  string
	csv      string
	cols     population.Columns
	out      string
	redisKey string
}

func newBuildCacheCmd() *cobra.Command {
	o := &buildCacheOptions{cols: population.DefaultColumns}
	cmd := &cobra.Command{
		Use:   "build-cache",
		Short: "Build the compressed startup cache from a GeoJSON boundary file and a population CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuildCache(cmd.Context(), o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.geojson, "geojson", "data/Community Districts.geojson", "boundary GeoJSON file")
	f.StringVar(&o.idField, "id-field", boundary.DefaultIDField, "feature property holding the district id")
	f.StringVar(&o.csv, "csv", "data/population.csv", "population CSV file")
	f.StringVar(&o.cols.Date, "date-col", o.cols.Date, "CSV date column")
	f.StringVar(&o.cols.District, "district-col", o.cols.District, "CSV district column")
	f.StringVar(&o.cols.Value, "value-col", o.cols.Value, "CSV value column")
	f.StringVar(&o.out, "out", "data/cache/dataset.gob.zst", "output cache file; empty to skip")
	f.StringVar(&o.redisKey, "redis-key", "", "also publish the cache to this Redis key (REDIS_* env)")
	return cmd
}

func runBuildCache(ctx context.Context, o *buildCacheOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	tbl, err := dataset.LoadCSV(o.csv, o.cols)
	if err != nil {
		return err
	}
	ds, err := dataset.LoadTable(o.geojson, o.idField, tbl)
	if err != nil {
		return err
	}
	if o.out != "" {
		if err := dataset.WriteCacheFile(o.out, ds); err != nil {
			return fmt.Errorf("write cache: %w", err)
		}
		logger.L().Info("cache_written", "path", o.out, "regions", ds.Regions.Len(), "rows", ds.Table.Len())
	}
	if o.redisKey != "" {
		rc := utils.OpenRedisFromEnv()
		if rc == nil {
			return fmt.Errorf("redis disabled but --redis-key given")
		}
		defer rc.Close()
		if err := dataset.PublishRedis(ctx, rc, o.redisKey, ds); err != nil {
			return fmt.Errorf("publish cache: %w", err)
		}
		logger.L().Info("cache_published", "key", o.redisKey)
	}
	return nil
}
