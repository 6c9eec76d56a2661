package workbook

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/macropower/condfmt/api"
	"github.com/macropower/condfmt/pkg/cell"
	"github.com/macropower/condfmt/pkg/yaml"
)

var (
	// ErrUnsupportedFormat indicates a file extension with no loader.
	ErrUnsupportedFormat = errors.New("unsupported value file format")
	// ErrSheetNotFound indicates a worksheet name missing from a workbook.
	ErrSheetNotFound = errors.New("sheet not found")
)

// Load reads path with the loader matching its extension. For workbooks,
// an empty sheet selects the active worksheet.
func Load(path, sheet string) (*Grid, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return LoadXLSX(path, sheet)
	case ".yaml", ".yml":
		return LoadYAML(path)
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// LoadXLSX reads the cached values of one worksheet. Formulas are not
// recalculated.
func LoadXLSX(path, sheet string) (*Grid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}

	defer func() {
		err := f.Close()
		if err != nil {
			slog.Error("close workbook", slog.String("path", path), slog.Any("error", err))
		}
	}()

	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}

	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx == -1 {
		return nil, fmt.Errorf("%w: %q in %s", ErrSheetNotFound, sheet, path)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows of %q: %w", sheet, err)
	}

	values := make([][]cell.Value, len(rows))

	for r, row := range rows {
		values[r] = make([]cell.Value, len(row))

		for c, raw := range row {
			if raw == "" {
				continue
			}

			name := cell.Address{Row: r, Col: c}.String()

			typ, err := f.GetCellType(sheet, name)
			if err != nil {
				return nil, fmt.Errorf("read type of %s: %w", name, err)
			}

			values[r][c] = convertXLSX(typ, raw)
		}
	}

	slog.Debug("loaded workbook",
		slog.String("path", path),
		slog.String("sheet", sheet),
		slog.Int("rows", len(rows)),
	)

	return NewGrid(sheet, values), nil
}

func convertXLSX(typ excelize.CellType, raw string) cell.Value {
	switch typ {
	case excelize.CellTypeBool:
		return cell.Bool(raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeError:
		return cell.Error(raw)
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
		if v := cell.Parse(raw); v.Kind() == cell.KindError {
			return v
		}

		return cell.Text(raw)
	case excelize.CellTypeUnset, excelize.CellTypeDate, excelize.CellTypeFormula, excelize.CellTypeNumber:
		return cell.Parse(raw)
	}

	return cell.Parse(raw)
}

// Document is the YAML form of a grid.
type Document struct {
	// Sheet names the grid; it defaults to "Sheet1".
	Sheet string `json:"sheet,omitempty"`
	// Rows holds row-major scalar values. Strings such as "#DIV/0!" are
	// error markers.
	Rows [][]any `json:"rows"`
}

// LoadYAML reads a grid [Document] from path.
func LoadYAML(path string) (*Grid, error) {
	data, err := api.ReadFile(path)
	if err != nil {
		return nil, err //nolint:wrapcheck // Return the original error.
	}

	return ParseYAML(data)
}

// ParseYAML decodes a grid [Document].
func ParseYAML(data []byte) (*Grid, error) {
	wrap := yaml.NewErrorWrapper(yaml.WithSource(data))

	var doc Document

	err := yaml.NewStrictDecoder(bytes.NewReader(data)).Decode(&doc)
	if err != nil {
		return nil, wrap.Wrap(err)
	}

	if doc.Sheet == "" {
		doc.Sheet = "Sheet1"
	}

	values := make([][]cell.Value, len(doc.Rows))

	for r, row := range doc.Rows {
		values[r] = make([]cell.Value, len(row))

		for c, x := range row {
			v, err := cell.FromAny(x)
			if err != nil {
				path := yaml.NewPathBuilder().Root().Child("rows").Index(uint(r)).Index(uint(c)).Build()
				return nil, wrap.Wrap(yaml.NewError(err, yaml.WithPath(path)))
			}

			values[r][c] = v
		}
	}

	return NewGrid(doc.Sheet, values), nil
}
