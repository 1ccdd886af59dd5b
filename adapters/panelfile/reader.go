// Package panelfile loads panel datasets from xlsx and csv files.
package panelfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"equitrends/domain/panel"
	"equitrends/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Config maps file columns onto the panel structure. Columns whose header
// starts with PlaceboPrefix become the leading placebo regressors, in header
// order; every other column except the identifiers becomes a control
// regressor.
type Config struct {
	IDColumn       string
	TimeColumn     string
	ResponseColumn string
	PlaceboPrefix  string
}

// DefaultConfig returns the conventional column mapping.
func DefaultConfig() Config {
	return Config{
		IDColumn:       "id",
		TimeColumn:     "period",
		ResponseColumn: "outcome",
		PlaceboPrefix:  "placebo_",
	}
}

// Reader handles reading panel data from Excel and CSV files.
type Reader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	config   Config
}

// NewReader creates a reader for the given file; the extension selects the
// format.
func NewReader(filePath string, config Config) *Reader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &Reader{filePath: filePath, fileType: fileType, config: config}
}

// Read loads the file into a validated panel dataset.
func (r *Reader) Read() (*panel.Dataset, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.DataError(fmt.Sprintf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath), err)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported file type: %s", r.fileType))
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, errors.InvalidInput("file must have at least a header row and one data row")
	}
	return r.processRows(rows)
}

func (r *Reader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.DataError("failed to open Excel file", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, errors.DataError("failed to read first sheet", err)
	}
	return rows, nil
}

func (r *Reader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.DataError("failed to open CSV file", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, errors.DataError("failed to read CSV file", err)
	}
	return rows, nil
}

// columnPlan is the resolved header layout: identifier positions plus the
// regressor columns in placebos-first order.
type columnPlan struct {
	idIdx, timeIdx, respIdx int
	regressorIdx            []int
	regressorNames          []string
	placebos                int
}

func (r *Reader) planColumns(header []string) (*columnPlan, error) {
	plan := &columnPlan{idIdx: -1, timeIdx: -1, respIdx: -1}

	var placeboIdx, controlIdx []int
	for i, raw := range header {
		name := strings.TrimSpace(raw)
		switch {
		case strings.EqualFold(name, r.config.IDColumn):
			plan.idIdx = i
		case strings.EqualFold(name, r.config.TimeColumn):
			plan.timeIdx = i
		case strings.EqualFold(name, r.config.ResponseColumn):
			plan.respIdx = i
		case strings.HasPrefix(strings.ToLower(name), strings.ToLower(r.config.PlaceboPrefix)):
			placeboIdx = append(placeboIdx, i)
		default:
			controlIdx = append(controlIdx, i)
		}
	}

	if plan.idIdx < 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("id column %q not found", r.config.IDColumn))
	}
	if plan.timeIdx < 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("time column %q not found", r.config.TimeColumn))
	}
	if plan.respIdx < 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("response column %q not found", r.config.ResponseColumn))
	}
	if len(placeboIdx) == 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("no columns with placebo prefix %q found", r.config.PlaceboPrefix))
	}

	plan.placebos = len(placeboIdx)
	for _, i := range append(placeboIdx, controlIdx...) {
		plan.regressorIdx = append(plan.regressorIdx, i)
		plan.regressorNames = append(plan.regressorNames, strings.TrimSpace(header[i]))
	}
	return plan, nil
}

func (r *Reader) processRows(rows [][]string) (*panel.Dataset, error) {
	plan, err := r.planColumns(rows[0])
	if err != nil {
		return nil, err
	}

	n := len(rows) - 1
	ds := &panel.Dataset{
		Response: make([]float64, 0, n),
		Design:   make([][]float64, 0, n),
		Columns:  plan.regressorNames,
		Placebos: plan.placebos,
		IDs:      make([]string, 0, n),
		Times:    make([]int, 0, n),
	}

	for rowNum, row := range rows[1:] {
		line := rowNum + 2 // 1-based, after the header

		id := cellAt(row, plan.idIdx)
		if id == "" {
			return nil, errors.InvalidInput(fmt.Sprintf("row %d: empty id", line))
		}
		t, err := strconv.Atoi(cellAt(row, plan.timeIdx))
		if err != nil {
			return nil, errors.DataError(fmt.Sprintf("row %d: invalid time period", line), err)
		}
		y, err := strconv.ParseFloat(cellAt(row, plan.respIdx), 64)
		if err != nil {
			return nil, errors.DataError(fmt.Sprintf("row %d: invalid response value", line), err)
		}

		design := make([]float64, len(plan.regressorIdx))
		for j, idx := range plan.regressorIdx {
			v, err := strconv.ParseFloat(cellAt(row, idx), 64)
			if err != nil {
				return nil, errors.DataError(fmt.Sprintf("row %d: invalid value in column %q", line, plan.regressorNames[j]), err)
			}
			design[j] = v
		}

		ds.IDs = append(ds.IDs, id)
		ds.Times = append(ds.Times, t)
		ds.Response = append(ds.Response, y)
		ds.Design = append(ds.Design, design)
	}

	if err := ds.Validate(); err != nil {
		return nil, errors.DataError("loaded dataset failed validation", err)
	}
	return ds, nil
}

func cellAt(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
