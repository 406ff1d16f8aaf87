package excel

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"socialstats/domain/core"
	"socialstats/domain/dataset"
	"socialstats/internal"
	"socialstats/internal/errors"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// DataReader handles reading Excel and CSV files into datasets
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	config   ReaderConfig
	logger   *internal.Logger
}

// NewDataReader creates a reader for filePath; the extension picks the format
func NewDataReader(filePath string, config ReaderConfig, logger *internal.Logger) *DataReader {
	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(filePath)), ".")
	if config.Sheet == "" {
		config.Sheet = DefaultReaderConfig().Sheet
	}
	if config.MissingTokens == nil {
		config.MissingTokens = DefaultReaderConfig().MissingTokens
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{filePath: filePath, fileType: fileType, config: config, logger: logger.With("excel")}
}

// ReadData reads the file, infers column types and applies the configured cleaning
func (r *DataReader) ReadData() (*dataset.Dataset, error) {
	if _, err := os.Stat(r.filePath); err != nil {
		return nil, errors.Wrapf(err, "%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var (
		ds  *dataset.Dataset
		err error
	)
	start := time.Now()
	switch r.fileType {
	case "csv":
		ds, err = r.readCSVData()
	case "xlsx":
		ds, err = r.readExcelData()
	default:
		return nil, errors.UnsupportedFile(r.filePath, fmt.Errorf("%w: %q", core.ErrUnsupportedFile, r.fileType))
	}
	if err != nil {
		return nil, err
	}
	r.logger.Info("%s file read in %.2fms (%d columns, %d rows)",
		strings.ToUpper(r.fileType), float64(time.Since(start).Nanoseconds())/1e6, ds.Width(), ds.Len())

	return r.clean(ds)
}

func (r *DataReader) readCSVData() (*dataset.Dataset, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer file.Close()
	return ReadCSV(file, r.config)
}

// readExcelData reads the configured sheet of an XLSX workbook
func (r *DataReader) readExcelData() (*dataset.Dataset, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.UnsupportedFile(r.filePath, err)
	}
	defer f.Close()

	rows, err := f.GetRows(r.config.Sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", r.config.Sheet)
	}
	return fromRecords(rows, r.config)
}

// clean deduplicates rows and applies the missing-value policy
func (r *DataReader) clean(ds *dataset.Dataset) (*dataset.Dataset, error) {
	if r.config.Deduplicate {
		var removed int
		ds, removed = ds.Deduplicate()
		if removed > 0 {
			r.logger.Info("removed %d duplicate rows", removed)
		}
	}
	policy, err := dataset.ParseMissingPolicy(string(r.config.MissingPolicy))
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return ds.FillMissing(policy), nil
}

// ReadCSV parses CSV with a header row from rd
func ReadCSV(rd io.Reader, config ReaderConfig) (*dataset.Dataset, error) {
	df := dataframe.ReadCSV(rd, loadOptions()...)
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "failed to read CSV data")
	}
	return fromFrame(df, config)
}

func loadOptions() []dataframe.LoadOption {
	return []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	}
}

// fromRecords loads raw rows, header first, padding short rows
func fromRecords(rows [][]string, config ReaderConfig) (*dataset.Dataset, error) {
	if len(rows) < 2 {
		return nil, errors.InvalidInput("file must have at least a header row and one data row")
	}
	width := len(rows[0])
	records := make([][]string, len(rows))
	for i, row := range rows {
		records[i] = make([]string, width)
		copy(records[i], row)
	}
	df := dataframe.LoadRecords(records, loadOptions()...)
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "failed to load records")
	}
	return fromFrame(df, config)
}

// fromFrame types every column of a string-typed frame
func fromFrame(df dataframe.DataFrame, config ReaderConfig) (*dataset.Dataset, error) {
	if df.Nrow() == 0 {
		return nil, errors.InvalidInput("file must have at least a header row and one data row")
	}
	missing := make(map[string]bool, len(config.MissingTokens))
	for _, tok := range config.MissingTokens {
		missing[strings.ToLower(strings.TrimSpace(tok))] = true
	}

	columns := make([]*dataset.Column, 0, df.Ncol())
	for _, name := range df.Names() {
		raw := df.Col(name).Records()
		cells := make([]string, len(raw))
		for i, v := range raw {
			v = strings.TrimSpace(v)
			if missing[strings.ToLower(v)] {
				v = ""
			}
			cells[i] = v
		}
		columns = append(columns, typedColumn(strings.TrimSpace(name), cells))
	}
	ds, err := dataset.New(columns...)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	return ds, nil
}

// InferColumnType picks numeric when every present cell parses as a number,
// timestamp when every present cell parses as a date, else categorical
func InferColumnType(cells []string) dataset.StatisticalType {
	numeric, dates, present := true, true, 0
	for _, v := range cells {
		if v == "" {
			continue
		}
		present++
		if numeric {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				numeric = false
			}
		}
		if dates {
			if _, ok := parseDate(v); !ok {
				dates = false
			}
		}
		if !numeric && !dates {
			break
		}
	}
	switch {
	case present == 0:
		return dataset.TypeCategorical
	case numeric:
		return dataset.TypeNumeric
	case dates:
		return dataset.TypeTimestamp
	default:
		return dataset.TypeCategorical
	}
}

func typedColumn(name string, cells []string) *dataset.Column {
	typ := InferColumnType(cells)
	values := make([]dataset.Value, len(cells))
	for i, v := range cells {
		if v == "" {
			continue
		}
		switch typ {
		case dataset.TypeNumeric:
			f, _ := strconv.ParseFloat(v, 64)
			values[i] = dataset.Number(f)
		case dataset.TypeTimestamp:
			t, _ := parseDate(v)
			values[i] = dataset.Time(t)
		default:
			values[i] = dataset.Text(v)
		}
	}
	return dataset.NewColumn(name, typ, values)
}

// datePatterns pairs a shape check with the layouts that can parse it
var datePatterns = []struct {
	pattern *regexp.Regexp
	layouts []string
}{
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), []string{"2006-01-02"}},
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}`), []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02 15:04"}},
	{regexp.MustCompile(`^\d{4}/\d{2}/\d{2}$`), []string{"2006/01/02"}},
	{regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`), []string{"1/2/2006", "2/1/2006"}},
	{regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{4}$`), []string{"1-2-2006", "2-1-2006"}},
	{regexp.MustCompile(`^[A-Za-z]{3,9} \d{1,2}, \d{4}$`), []string{"Jan 2, 2006", "January 2, 2006"}},
	{regexp.MustCompile(`^\d{1,2} [A-Za-z]{3,9} \d{4}$`), []string{"2 Jan 2006", "2 January 2006"}},
}

// parseDate recognizes the common date shapes; month-first wins when both orders parse
func parseDate(value string) (time.Time, bool) {
	for _, p := range datePatterns {
		if !p.pattern.MatchString(value) {
			continue
		}
		for _, layout := range p.layouts {
			if t, err := time.Parse(layout, value); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// WriteCSV writes ds with a header row; missing cells are empty
func WriteCSV(w io.Writer, ds *dataset.Dataset) error {
	cols := make([]series.Series, 0, ds.Width())
	for _, c := range ds.Columns() {
		cols = append(cols, series.New(c.Labels(), series.String, c.Name))
	}
	df := dataframe.New(cols...)
	if df.Err != nil {
		return errors.Wrap(df.Err, "failed to build frame")
	}
	return df.WriteCSV(w)
}
