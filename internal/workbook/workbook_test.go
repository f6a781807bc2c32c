package workbook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFixture(t *testing.T, path string, sheets map[string][][]string, order ...string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			for c, v := range row {
				if v == "" {
					continue
				}
				ref, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellValue(name, ref, v))
			}
		}
	}
	require.NoError(t, f.SaveAs(path))
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"log.xlsx", FormatModern, false},
		{"LOG.XLSX", FormatModern, false},
		{"log.xlsm", FormatModern, false},
		{"log.xls", FormatLegacy, false},
		{"log.csv", "", true},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.path)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrCorrupt)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.path)
	}
}

func TestModernPath(t *testing.T) {
	assert.Equal(t, "/share/LOG.xlsx", ModernPath("/share/LOG.xls"))
	assert.Equal(t, "/share/LOG.xlsx", ModernPath("/share/LOG.XLS"))
	assert.Equal(t, "/share/LOG.xlsx", ModernPath("/share/LOG.xlsx"))
}

func TestResolvePath(t *testing.T) {
	dir := t.TempDir()
	legacy := filepath.Join(dir, "log.xls")
	modern := filepath.Join(dir, "log.xlsx")

	_, err := ResolvePath(legacy)
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = ResolvePath("")
	assert.ErrorIs(t, err, ErrFileNotFound)

	require.NoError(t, os.WriteFile(legacy, []byte("x"), 0644))
	got, err := ResolvePath(legacy)
	require.NoError(t, err)
	assert.Equal(t, legacy, got)

	require.NoError(t, os.WriteFile(modern, []byte("x"), 0644))
	got, err = ResolvePath(legacy)
	require.NoError(t, err)
	assert.Equal(t, modern, got, "modern sibling is authoritative")
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestOpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0644))
	_, err := Open(path)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestModernReadWriteSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.xlsx")
	writeFixture(t, path, map[string][][]string{
		"Index":      {{"Equipment list"}},
		"Compressor": {{"Oil Free Air Compressor"}, {"Step", "1", "2"}},
	}, "Index", "Compressor")

	wb, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, FormatModern, wb.Format())

	sheets := wb.Sheets()
	require.Len(t, sheets, 2)
	assert.Equal(t, "Index", sheets[0].Name())
	sh := sheets[1]
	assert.Equal(t, "Compressor", sh.Name())
	assert.Equal(t, 2, sh.MaxRow())
	assert.Equal(t, 3, sh.MaxCol())
	assert.Equal(t, "2", sh.Cell(2, 3))
	assert.Equal(t, "", sh.Cell(9, 9))

	require.NoError(t, sh.SetCell(3, 2, "✓"))
	assert.Equal(t, "✓", sh.Cell(3, 2))
	require.NoError(t, wb.Save())
	require.NoError(t, wb.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	again := reopened.Sheets()[1]
	assert.Equal(t, "✓", again.Cell(3, 2))
	assert.Equal(t, "Oil Free Air Compressor", again.Cell(1, 1))
	assert.Equal(t, "Equipment list", reopened.Sheets()[0].Cell(1, 1))
}

func TestLegacySaveWritesModernSibling(t *testing.T) {
	dir := t.TempDir()
	legacy := filepath.Join(dir, "log.xls")
	wb := &legacyWorkbook{
		path: legacy,
		grids: []*Grid{
			NewGrid("Crimper", [][]string{{"Blockwise Crimper"}, {"1", "2", "Date"}}),
			NewGrid("Other", [][]string{{"x"}}),
		},
	}
	require.NoError(t, wb.Sheets()[0].SetCell(3, 3, "11/15/2025"))
	require.NoError(t, wb.Save())
	assert.Equal(t, filepath.Join(dir, "log.xlsx"), wb.Path())

	resolved, err := ResolvePath(legacy)
	require.NoError(t, err)
	assert.Equal(t, wb.Path(), resolved)

	reopened, err := Open(resolved)
	require.NoError(t, err)
	defer reopened.Close()
	sheets := reopened.Sheets()
	require.Len(t, sheets, 2)
	assert.Equal(t, "Crimper", sheets[0].Name())
	assert.Equal(t, "11/15/2025", sheets[0].Cell(3, 3))
	assert.Equal(t, "2", sheets[0].Cell(2, 2))
}

func TestGrid(t *testing.T) {
	g := NewGrid("s", [][]string{{"a"}, nil, {"", "  "}})
	assert.Equal(t, 1, g.MaxRow(), "blank rows do not count")
	assert.Equal(t, 2, g.MaxCol())

	require.NoError(t, g.SetCell(5, 4, "x"))
	assert.Equal(t, 5, g.MaxRow())
	assert.Equal(t, "x", g.Cell(5, 4))
	assert.Equal(t, "", g.Cell(0, 1))
	assert.Error(t, g.SetCell(0, 1, "y"))
}

const legacyFixture = "testdata/maintenance_log.xls"

func copyLegacyFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(legacyFixture)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "maintenance_log.xls")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func isTextCell(typ excelize.CellType) bool {
	return typ == excelize.CellTypeSharedString || typ == excelize.CellTypeInlineString
}

func TestOpenLegacyFile(t *testing.T) {
	wb, err := Open(legacyFixture)
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, FormatLegacy, wb.Format())

	sheets := wb.Sheets()
	require.Len(t, sheets, 2)
	assert.Equal(t, "Index", sheets[0].Name())
	assert.Equal(t, "Compressor", sheets[1].Name())

	index := sheets[0]
	assert.Equal(t, "Equipment Maintenance Log", index.Cell(1, 1))
	assert.Equal(t, "01234", index.Cell(2, 2))
	assert.Equal(t, "1e3", index.Cell(2, 3))
	assert.Equal(t, "42.5", index.Cell(2, 4))
	assert.Equal(t, "7", index.Cell(2, 5))
	assert.Equal(t, 5, index.MaxCol(), "rows without a ROW record keep their cells")

	comp := sheets[1]
	assert.Equal(t, "Oil Free Air Compressor", comp.Cell(1, 1))
	assert.Equal(t, "S/N: 20250623001", comp.Cell(2, 1))
	assert.Equal(t, "", comp.Cell(4, 1), "rows missing from the file read as blank")
	assert.Equal(t, []string{"Step", "1", "2", "3", "Date", "Notes"}, []string{
		comp.Cell(5, 1), comp.Cell(5, 2), comp.Cell(5, 3), comp.Cell(5, 4), comp.Cell(5, 5), comp.Cell(5, 6),
	})
	assert.Equal(t, "✓", comp.Cell(6, 2))
	assert.Equal(t, "AG - 10/15/2025", comp.Cell(6, 6))
	assert.Equal(t, 6, comp.MaxRow())

	g, ok := index.(*Grid)
	require.True(t, ok)
	assert.False(t, g.IsNumeric(2, 2))
	assert.False(t, g.IsNumeric(2, 3))
	assert.True(t, g.IsNumeric(2, 4))
	assert.True(t, g.IsNumeric(2, 5))
	assert.True(t, comp.(*Grid).IsNumeric(5, 3), "MULRK cells are numbers")
}

func TestLegacySaveKeepsCellTypes(t *testing.T) {
	path := copyLegacyFixture(t)
	wb, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, wb.Sheets()[1].SetCell(7, 5, "11/15/2025"))
	require.NoError(t, wb.Save())
	require.NoError(t, wb.Close())

	f, err := excelize.OpenFile(ModernPath(path))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Index", "Compressor"}, f.GetSheetList())

	tests := []struct {
		sheet, ref, want string
		text             bool
	}{
		{"Index", "B2", "01234", true},
		{"Index", "C2", "1e3", true},
		{"Index", "D2", "42.5", false},
		{"Index", "E2", "7", false},
		{"Compressor", "C5", "2", false},
		{"Compressor", "B6", "✓", true},
		{"Compressor", "E7", "11/15/2025", true},
	}
	for _, tt := range tests {
		t.Run(tt.sheet+"!"+tt.ref, func(t *testing.T) {
			v, err := f.GetCellValue(tt.sheet, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
			typ, err := f.GetCellType(tt.sheet, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.text, isTextCell(typ))
		})
	}
}

func TestLegacySaveNeverGuessesNumbers(t *testing.T) {
	g := NewGrid("Parts", [][]string{{"01234", "1e3", "NaN", "0x1p1", "42"}})
	g.markNumeric(1, 5)
	legacy := filepath.Join(t.TempDir(), "parts.xls")
	require.NoError(t, (&legacyWorkbook{path: legacy, grids: []*Grid{g}}).Save())

	f, err := excelize.OpenFile(ModernPath(legacy))
	require.NoError(t, err)
	defer f.Close()
	for i, want := range []string{"01234", "1e3", "NaN", "0x1p1"} {
		ref, err := excelize.CoordinatesToCellName(i+1, 1)
		require.NoError(t, err)
		v, err := f.GetCellValue("Parts", ref)
		require.NoError(t, err)
		assert.Equal(t, want, v)
		typ, err := f.GetCellType("Parts", ref)
		require.NoError(t, err)
		assert.True(t, isTextCell(typ), "%s stays text", want)
	}
	typ, err := f.GetCellType("Parts", "E1")
	require.NoError(t, err)
	assert.False(t, isTextCell(typ))
}

func TestGridSetCellClearsNumeric(t *testing.T) {
	g := NewGrid("s", [][]string{{"42"}})
	g.markNumeric(1, 1)
	assert.True(t, g.IsNumeric(1, 1))
	require.NoError(t, g.SetCell(1, 1, "042"))
	assert.False(t, g.IsNumeric(1, 1))
}
