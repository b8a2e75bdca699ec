package dashboard

import (
	"testing"
	"time"

	"district-dash/internal/boundary"
	"district-dash/internal/chart"
	"district-dash/internal/dataset"
	"district-dash/internal/interact"
	"district-dash/internal/population"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

func square(x float64) orb.Polygon {
	return orb.Polygon{{{x, 0}, {x + 1, 0}, {x + 1, 1}, {x, 1}, {x, 0}}}
}

func newContext(t *testing.T) *Context {
	t.Helper()
	regions, err := boundary.New("boro_cd", []boundary.Region{
		{ID: "101", Geometry: square(0)},
		{ID: "102", Geometry: square(1)},
		{ID: "109", Geometry: square(2)},
	})
	require.NoError(t, err)
	sep := time.Date(2020, 9, 1, 0, 0, 0, 0, time.UTC)
	tbl := population.NewTable([]population.Row{
		{Date: sep, District: "101", Population: 50},
		{Date: sep, District: "102", Population: 75},
		{Date: sep.AddDate(0, -1, 0), District: "109", Population: 20},
		{Date: sep, District: "109", Population: 30},
	})
	return New(&dataset.Dataset{Regions: regions, Table: tbl}, Settings{
		MapMonth:     population.MustMonth("2020-09"),
		BarFromMonth: population.MustMonth("2020-03"),
	})
}

func TestMapFigureDefaultsToConfiguredMonth(t *testing.T) {
	c := newContext(t)

	tr := c.MapFigure(population.Month{}).Data[0].(chart.ChoroplethTrace)

	require.Equal(t, []string{"101", "102", "109"}, tr.Locations)
	require.Equal(t, []float64{50, 75, 30}, tr.Z)
}

func TestMapFigureForEmptyMonth(t *testing.T) {
	tr := newContext(t).MapFigure(population.MustMonth("1999-01")).Data[0].(chart.ChoroplethTrace)

	require.Empty(t, tr.Locations)
}

func TestClickWithoutSelectionUsesDefaultDistrict(t *testing.T) {
	c := newContext(t)

	resp := c.Click(nil)

	require.Equal(t, interact.Heading("109"), resp.Heading)
	require.Equal(t, []float64{20, 30}, resp.Figure.Data[0].(chart.BarTrace).Y)
	require.Equal(t, c.Click(&interact.ClickEvent{Points: []interact.Point{{Location: "109"}}}), resp)
}

func TestSnapshotFigure(t *testing.T) {
	tr := newContext(t).SnapshotFigure(population.MustMonth("2020-09")).Data[0].(chart.BarTrace)

	require.Equal(t, []string{"101", "102", "109"}, tr.X)
	require.Equal(t, []float64{50, 75, 30}, tr.Y)
}

func TestSnapshotFollowsRegionOrderNotTableOrder(t *testing.T) {
	regions, err := boundary.New("boro_cd", []boundary.Region{
		{ID: "101", Geometry: square(0)},
		{ID: "102", Geometry: square(1)},
		{ID: "109", Geometry: square(2)},
	})
	require.NoError(t, err)
	sep := time.Date(2020, 9, 1, 0, 0, 0, 0, time.UTC)
	tbl := population.NewTable([]population.Row{
		{Date: sep, District: "109", Population: 9},
		{Date: sep, District: "101", Population: 1},
		{Date: sep, District: "102", Population: 2},
		{Date: sep, District: "777", Population: 7},
	})
	c := New(&dataset.Dataset{Regions: regions, Table: tbl}, Settings{MapMonth: population.MustMonth("2020-09")})

	tr := c.SnapshotFigure(population.Month{}).Data[0].(chart.BarTrace)

	require.Equal(t, []string{"101", "102", "109"}, tr.X)
	require.Equal(t, []float64{1, 2, 9}, tr.Y)
}

func TestSnapshotForEmptyMonth(t *testing.T) {
	tr := newContext(t).SnapshotFigure(population.MustMonth("1999-01")).Data[0].(chart.BarTrace)

	require.NotNil(t, tr.X)
	require.Empty(t, tr.X)
}

func TestLocateAndSummary(t *testing.T) {
	c := newContext(t)

	id, ok := c.Locate(0.5, 1.5)
	require.True(t, ok)
	require.Equal(t, "102", id)
	_, ok = c.Locate(-1, -1)
	require.False(t, ok)

	s := c.Summary()
	require.Equal(t, 3, s.Regions)
	require.Equal(t, 4, s.Rows)
	require.Equal(t, []string{"2020-08", "2020-09"}, s.Months)
	require.Equal(t, "109", s.DefaultDistrict)
}
