package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	csvcolumnmap "github.com/venicegeo/bf-scene-catalog/ingest/csvcolumnmap"
	"github.com/venicegeo/bf-scene-catalog/util"
)

var csvColumns = []string{"scene"}

var csvDelimiters = []rune{',', ';', '\t', '|'}

// sniffDelimiter picks the delimiter occurring most often in the header line,
// comma on a tie
func sniffDelimiter(header string) rune {
	best, bestCount := csvDelimiters[0], 0
	for _, d := range csvDelimiters {
		if n := strings.Count(header, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// ImportCSV reads scene paths from the "scene" column of a catalog export and
// ingests them. The delimiter is taken from the header line. Unreadable lines
// are counted as failures.
func (e *Engine) ImportCSV(reader io.Reader, opts Options) (*Report, error) {
	buffered := bufio.NewReader(reader)
	header, err := buffered.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, errors.Wrapf(util.ErrIOFailure, "reading csv: %v", err)
	}
	csvReader := csv.NewReader(io.MultiReader(strings.NewReader(header), buffered))
	csvReader.Comma = sniffDelimiter(header)
	csvReader.FieldsPerRecord = -1
	firstRow, err := csvReader.Read()
	if err != nil {
		return nil, errors.Wrapf(util.ErrParse, "reading csv header: %v", err)
	}

	colMap, err := csvcolumnmap.New(csvColumns, firstRow)
	if err != nil {
		return nil, err
	}
	valueMap := colMap.CreateValueMap()

	paths := []string{}
	badLines := 0
CSVLoop:
	for {
		rawLineValues, csvErr := csvReader.Read()
		switch csvErr {
		case nil:
			colMap.UpdateMap(rawLineValues, valueMap)
			if scene := valueMap["scene"]; scene != "" {
				paths = append(paths, scene)
			}
		case io.EOF:
			break CSVLoop
		default:
			var parseErr *csv.ParseError
			if !errors.As(csvErr, &parseErr) {
				return nil, errors.Wrapf(util.ErrIOFailure, "reading csv: %v", csvErr)
			}
			util.LogAlert(e.logCtx, fmt.Sprintf("Error reading csv line: %v", csvErr))
			badLines++
		}
	}

	report, err := e.Ingest(paths, opts)
	if report != nil {
		report.Failed += badLines
	}
	return report, err
}
