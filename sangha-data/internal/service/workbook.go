package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"sangha/sangha-common/domain"
)

// SheetName is the worksheet written by EncodeWorkbook.
const SheetName = "Statistics"

// listSeparator joins string lists (documents) inside one cell.
const listSeparator = "; "

type leafKind int

const (
	leafString leafKind = iota
	leafNumber
	leafTime
	leafList
)

type column struct {
	path []int // reflect field index path into domain.Member
	name string
	kind leafKind
	keys []string
}

var (
	columnsOnce sync.Once
	columns     []column
)

var timeType = reflect.TypeOf(time.Time{})

// Columns returns the spreadsheet header: every member attribute, nested blocks
// flattened to dotted JSON paths, in declaration order.
func Columns() []string {
	cols := memberColumns()
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.name
	}
	return out
}

func memberColumns() []column {
	columnsOnce.Do(func() {
		columns = walkColumns(reflect.TypeOf(domain.Member{}), nil, nil)
	})
	return columns
}

func walkColumns(t reflect.Type, index []int, prefix []string) []column {
	var out []column
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		path := append(append([]int{}, index...), i)
		jsonPath := append(append([]string{}, prefix...), name)

		switch {
		case f.Type == timeType:
			out = append(out, newColumn(path, jsonPath, leafTime))
		case f.Type.Kind() == reflect.Struct:
			out = append(out, walkColumns(f.Type, path, jsonPath)...)
		case f.Type.Kind() == reflect.Slice:
			out = append(out, newColumn(path, jsonPath, leafList))
		case f.Type.Kind() == reflect.Int:
			out = append(out, newColumn(path, jsonPath, leafNumber))
		default:
			out = append(out, newColumn(path, jsonPath, leafString))
		}
	}
	return out
}

func newColumn(path []int, jsonPath []string, kind leafKind) column {
	return column{path: path, name: strings.Join(jsonPath, "."), kind: kind, keys: jsonPath}
}

func cellValue(v reflect.Value, kind leafKind) any {
	switch kind {
	case leafTime:
		t := v.Interface().(time.Time)
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339)
	case leafList:
		items := make([]string, v.Len())
		for i := range items {
			items[i] = v.Index(i).String()
		}
		return strings.Join(items, listSeparator)
	case leafNumber:
		return v.Int()
	default:
		return v.String()
	}
}

// EncodeWorkbook writes members to a one-sheet xlsx workbook.
func EncodeWorkbook(members []domain.Member) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	cols := memberColumns()
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c.name
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return nil, fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	for i := range members {
		v := reflect.ValueOf(members[i])
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = cellValue(v.FieldByIndex(c.path), c.kind)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// RowError reports a data row that could not be decoded or stored. Row is
// 1-based as shown in a spreadsheet application.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Sheet is the decoded first worksheet of a workbook.
type Sheet struct {
	Name    string
	Header  []string
	Records []map[string]string // one entry per non-empty data row
	rows    []int
}

// ReadSheet reads the first worksheet into header-keyed records.
func ReadSheet(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse workbook: %w", err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	if name == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	s := &Sheet{Name: name, Records: []map[string]string{}}
	if len(rows) == 0 {
		return s, nil
	}
	s.Header = rows[0]
	for i, row := range rows[1:] {
		rec := make(map[string]string, len(row))
		for j, cell := range row {
			if j >= len(s.Header) || s.Header[j] == "" || cell == "" {
				continue
			}
			rec[s.Header[j]] = cell
		}
		if len(rec) == 0 {
			continue
		}
		s.Records = append(s.Records, rec)
		s.rows = append(s.rows, i+2)
	}
	return s, nil
}

// SheetEntry is a decoded member with the spreadsheet row it came from.
type SheetEntry struct {
	Row    int
	Member domain.Member
}

// Entries decodes every record into a member. Unknown columns are ignored;
// counters decode leniently and tags must be valid.
func (s *Sheet) Entries() ([]SheetEntry, []RowError) {
	byName := make(map[string]column)
	for _, c := range memberColumns() {
		byName[c.name] = c
	}

	entries := make([]SheetEntry, 0, len(s.Records))
	var errs []RowError
	for i, rec := range s.Records {
		m, err := decodeRecord(rec, byName)
		if err != nil {
			errs = append(errs, RowError{Row: s.rows[i], Message: err.Error()})
			continue
		}
		entries = append(entries, SheetEntry{Row: s.rows[i], Member: m})
	}
	return entries, errs
}

// Members is Entries without the row numbers.
func (s *Sheet) Members() ([]domain.Member, []RowError) {
	entries, errs := s.Entries()
	members := make([]domain.Member, len(entries))
	for i, e := range entries {
		members[i] = e.Member
	}
	return members, errs
}

func decodeRecord(rec map[string]string, byName map[string]column) (domain.Member, error) {
	doc := map[string]any{}
	for name, cell := range rec {
		c, ok := byName[name]
		if !ok {
			continue
		}
		var v any = cell
		if c.kind == leafList {
			items := strings.Split(cell, ";")
			for i := range items {
				items[i] = strings.TrimSpace(items[i])
			}
			v = items
		}
		setPath(doc, c.keys, v)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return domain.Member{}, err
	}
	var m domain.Member
	if err := json.Unmarshal(raw, &m); err != nil {
		return domain.Member{}, err
	}
	return m, nil
}

func setPath(doc map[string]any, path []string, v any) {
	for _, key := range path[:len(path)-1] {
		next, ok := doc[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			doc[key] = next
		}
		doc = next
	}
	doc[path[len(path)-1]] = v
}
