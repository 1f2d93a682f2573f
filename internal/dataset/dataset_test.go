package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wilo3161/aropostale-logistics-v2/internal/config"
	recerrors "github.com/wilo3161/aropostale-logistics-v2/internal/errors"
	"github.com/xuri/excelize/v2"
)

func TestNewCell(t *testing.T) {
	tests := []struct {
		raw  string
		kind Kind
		text string
	}{
		{"", KindEmpty, ""},
		{"   ", KindEmpty, ""},
		{"LC004821", KindText, "LC004821"},
		{" 123456 ", KindNumber, "123456"},
		{"12.50", KindNumber, "12.50"},
		{"$1,234.56", KindText, "$1,234.56"},
		{"NaN", KindText, "NaN"},
		{"Inf", KindText, "Inf"},
		{"-Infinity", KindText, "-Infinity"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			c := NewCell(tt.raw)
			assert.Equal(t, tt.kind, c.Kind())
			assert.Equal(t, tt.text, c.String())
		})
	}

	n := NumberCell(4.5)
	f, ok := n.Float()
	assert.True(t, ok)
	assert.Equal(t, 4.5, f)
	assert.Equal(t, "4.5", n.String())

	_, ok = TextCell("abc").Float()
	assert.False(t, ok)
	assert.True(t, TextCell(" ").IsEmpty())
}

func TestNewDataset(t *testing.T) {
	ds := New("invoice", []string{" Guia ", "", "Guia"}, [][]string{
		{"LC1", "x", "y"},
		{"", "  ", ""},
		{"LC2"},
	})

	assert.Equal(t, "invoice", ds.Name())
	assert.Equal(t, []string{"Guia", "Column_2", "Guia (2)"}, ds.Headers())
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, "LC2", ds.Cell(1, "Guia").String())
	assert.True(t, ds.Cell(1, "Guia (2)").IsEmpty())
	assert.True(t, ds.Cell(5, "Guia").IsEmpty())
	assert.True(t, ds.Cell(0, "Nope").IsEmpty())

	col, err := ds.Column("Guia")
	require.NoError(t, err)
	assert.Len(t, col, 2)

	_, err = ds.Column("Nope")
	assert.Error(t, err)
}

func TestHeadersAreCopied(t *testing.T) {
	ds := New("manifest", []string{"Guia"}, nil)
	h := ds.Headers()
	h[0] = "changed"
	assert.Equal(t, []string{"Guia"}, ds.Headers())
	assert.True(t, ds.HasColumn("Guia"))
}

func TestFromCells(t *testing.T) {
	ds := FromCells("invoice", []string{"Guide", "Amount"}, [][]Cell{
		{TextCell("LC1"), NumberCell(10)},
		{TextCell("LC2")},
	})
	require.Equal(t, 2, ds.Len())
	assert.True(t, ds.Cell(1, "Amount").IsEmpty())
	assert.Equal(t, "10", ds.Cell(0, "Amount").String())
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatXLSX, DetectFormat("data.csv", []byte("PK\x03\x04rest")))
	assert.Equal(t, FormatXLS, DetectFormat("data.bin", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}))
	assert.Equal(t, FormatXLSX, DetectFormat("Facturas.XLSX", nil))
	assert.Equal(t, FormatXLS, DetectFormat("old.xls", nil))
	assert.Equal(t, FormatCSV, DetectFormat("data.txt", []byte("a,b")))
	assert.Equal(t, "xlsx", FormatXLSX.String())
}

func TestLoadCSV(t *testing.T) {
	settings := config.CSVSettings{}

	t.Run("comma", func(t *testing.T) {
		data := "Guide,Subtotal\nLC001,10\nLC002,20\n"
		ds, err := LoadBytes("invoice", "inv.csv", []byte(data), settings)
		require.NoError(t, err)
		assert.Equal(t, []string{"Guide", "Subtotal"}, ds.Headers())
		assert.Equal(t, 2, ds.Len())
		assert.Equal(t, "inv.csv", ds.SourceFile())
	})

	t.Run("semicolon is sniffed", func(t *testing.T) {
		data := "Guia;Valor;Fecha\n\"LC001\";\"4,5\";2024-01-01\n"
		ds, err := LoadBytes("invoice", "inv.csv", []byte(data), settings)
		require.NoError(t, err)
		assert.Equal(t, []string{"Guia", "Valor", "Fecha"}, ds.Headers())
		assert.Equal(t, "4,5", ds.Cell(0, "Valor").String())
	})

	t.Run("utf-8 bom is stripped", func(t *testing.T) {
		data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Guide,Amount\nLC1,1\n")...)
		ds, err := LoadBytes("invoice", "inv.csv", data, settings)
		require.NoError(t, err)
		assert.True(t, ds.HasColumn("Guide"))
	})

	t.Run("latin1", func(t *testing.T) {
		data := []byte("Gu\xeda;Valor\nLC1;10\n")
		ds, err := LoadBytes("manifest", "man.csv", data, config.CSVSettings{Encoding: "ISO-8859-1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Guía", "Valor"}, ds.Headers())
	})

	t.Run("multi-row header", func(t *testing.T) {
		data := "Numero,,Valor\nGuia,Fecha,Subtotal\nLC1,2024-01-01,10\n"
		ds, err := LoadBytes("invoice", "inv.csv", []byte(data), config.CSVSettings{HeaderRows: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"Numero Guia", "Fecha", "Valor Subtotal"}, ds.Headers())
		assert.Equal(t, 1, ds.Len())
	})

	t.Run("header only", func(t *testing.T) {
		ds, err := LoadBytes("manifest", "man.csv", []byte("Guide\n"), settings)
		require.NoError(t, err)
		assert.Equal(t, 0, ds.Len())
	})
}

func TestLoadErrors(t *testing.T) {
	t.Run("empty file", func(t *testing.T) {
		_, err := LoadBytes("invoice", "empty.csv", nil, config.CSVSettings{})
		require.Error(t, err)
		assert.True(t, recerrors.IsDatasetLoad(err))
		assert.Contains(t, err.Error(), "invoice")
		assert.Contains(t, err.Error(), "empty.csv")
	})

	t.Run("corrupt workbook", func(t *testing.T) {
		_, err := LoadBytes("manifest", "broken.xlsx", []byte("PK\x03\x04garbage"), config.CSVSettings{})
		require.Error(t, err)
		var loadErr *recerrors.DatasetLoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, "manifest", loadErr.Dataset)
		assert.Equal(t, "broken.xlsx", loadErr.File)
	})

	t.Run("nil reader", func(t *testing.T) {
		_, err := Load("invoice", Source{Filename: "x.csv"}, config.CSVSettings{})
		assert.True(t, recerrors.IsDatasetLoad(err))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile("invoice", filepath.Join(t.TempDir(), "nope.csv"), config.CSVSettings{})
		assert.True(t, recerrors.IsDatasetLoad(err))
	})
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Referencia Guia", "Subtotal"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"LC004821", 12.5}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{123456789, 30}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	ds, err := Load("invoice", Source{Filename: "facturas.xlsx", Reader: bytes.NewReader(buf.Bytes())}, config.CSVSettings{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Referencia Guia", "Subtotal"}, ds.Headers())
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, "LC004821", ds.Cell(0, "Referencia Guia").String())
	assert.Equal(t, KindNumber, ds.Cell(0, "Subtotal").Kind())
	assert.Equal(t, "123456789", ds.Cell(1, "Referencia Guia").String())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{"Tracking", "LC1", "LC2"}, "\n")), 0o644))

	ds, err := LoadFile("manifest", path, config.CSVSettings{})
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, "manifest.csv", ds.SourceFile())
}
