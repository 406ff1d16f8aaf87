package excel

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"socialstats/domain/core"
	"socialstats/domain/dataset"
	"socialstats/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const postsCSV = `post_date,platform,likes,followers
2024-01-01,Instagram,10,100
2024-01-02,TikTok,NA,200
2024-01-02,TikTok,NA,200
01/03/2024,Twitter,5,
`

func TestReadCSVInfersTypes(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader(postsCSV), DefaultReaderConfig())
	require.NoError(t, err)

	assert.Equal(t, 4, ds.Len())
	assert.Equal(t, []string{"post_date", "platform", "likes", "followers"}, ds.Names())

	for name, want := range map[string]dataset.StatisticalType{
		"post_date": dataset.TypeTimestamp,
		"platform":  dataset.TypeCategorical,
		"likes":     dataset.TypeNumeric,
		"followers": dataset.TypeNumeric,
	} {
		got, ok := ds.Type(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	missing := ds.MissingByColumn()
	assert.Equal(t, 2, missing["likes"])
	assert.Equal(t, 1, missing["followers"])

	dates, _ := ds.Column("post_date")
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), dates.At(3).Time)
}

func TestReadDataCleansCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.csv")
	require.NoError(t, os.WriteFile(path, []byte(postsCSV), 0o644))

	cfg := DefaultReaderConfig()
	cfg.MissingPolicy = dataset.MissingFillZero
	ds, err := NewDataReader(path, cfg, nil).ReadData()
	require.NoError(t, err)

	assert.Equal(t, 3, ds.Len())
	likes, _ := ds.Numeric("likes")
	assert.Equal(t, []float64{10, 0, 5}, likes)
	assert.Zero(t, ds.MissingByColumn()["followers"])
}

func TestReadDataExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.xlsx")
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"platform", "likes", "comments"},
		{"Instagram", 120, 4},
		{"TikTok", 300, 11},
		{"LinkedIn", 15},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	ds, err := NewDataReader(path, DefaultReaderConfig(), nil).ReadData()
	require.NoError(t, err)

	assert.Equal(t, 3, ds.Len())
	typ, _ := ds.Type("likes")
	assert.Equal(t, dataset.TypeNumeric, typ)
	likes, _ := ds.Numeric("likes")
	assert.Equal(t, []float64{120, 300, 15}, likes)
	assert.Equal(t, 1, ds.MissingByColumn()["comments"])
}

func TestReadDataMissingSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	cfg := DefaultReaderConfig()
	cfg.Sheet = "Posts"
	_, err := NewDataReader(path, cfg, nil).ReadData()
	assert.Error(t, err)
}

func TestReadDataUnsupportedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))

	_, err := NewDataReader(path, DefaultReaderConfig(), nil).ReadData()
	require.Error(t, err)
	assert.Equal(t, errors.CodeUnsupportedFile, errors.GetCode(err))
	assert.True(t, stderrors.Is(err, core.ErrUnsupportedFile))
}

func TestReadDataRejectsHeaderOnly(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("likes,followers\n"), DefaultReaderConfig())
	assert.Error(t, err)
}

func TestWriteCSVRoundTrip(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	ds := dataset.MustNew(
		dataset.NewTimestampColumn("post_date", []time.Time{day, day.AddDate(0, 0, 1)}),
		dataset.NewCategoricalColumn("platform", []string{"TikTok", ""}),
		dataset.NewNumericColumn("engagement_rate", []float64{0.125, 1e6}),
	)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, ds))

	back, err := ReadCSV(&buf, DefaultReaderConfig())
	require.NoError(t, err)
	for _, name := range ds.Names() {
		want, _ := ds.Labels(name)
		got, _ := back.Labels(name)
		assert.Equal(t, want, got, name)
		wantType, _ := ds.Type(name)
		gotType, _ := back.Type(name)
		assert.Equal(t, wantType, gotType, name)
	}
}

func TestInferColumnType(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		want  dataset.StatisticalType
	}{
		{"numbers", []string{"1", "2.5", "", "-3e2"}, dataset.TypeNumeric},
		{"iso dates", []string{"2024-01-01", "2024-02-29"}, dataset.TypeTimestamp},
		{"long dates", []string{"March 5, 2024", "Jan 9, 2024"}, dataset.TypeTimestamp},
		{"mixed", []string{"1", "two"}, dataset.TypeCategorical},
		{"empty", []string{"", ""}, dataset.TypeCategorical},
		{"bad day", []string{"2024-13-45"}, dataset.TypeCategorical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferColumnType(tt.cells))
		})
	}
}
