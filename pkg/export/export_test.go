package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Lead Funnel",
		Headers: []string{"stage", "count"},
		Rows: []map[string]string{
			{"stage": "New", "count": "4"},
			{"stage": "Contacted, by phone", "count": "2"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "stage,count\nNew,4\n\"Contacted, by phone\",2\n", string(out))

	_, err = NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	wide := Dataset{Headers: []string{"a", "b", "c", "d", "e", "f", "g"}}
	for i := 0; i < 80; i++ {
		wide.Rows = append(wide.Rows, map[string]string{"a": "x"})
	}
	out, err = NewPDFExporter().Render(wide)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	assert.Equal(t, "application/pdf", f.ContentType())
	assert.IsType(t, &PDFExporter{}, RendererFor(f))

	_, err = ParseFormat("xlsx")
	require.Error(t, err)
}

func TestCSVExporterExcelCompatible(t *testing.T) {
	exporter := &CSVExporter{ExcelCompatible: true}
	var buf bytes.Buffer
	require.NoError(t, exporter.Write(&buf, sampleDataset()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, buf.String(), "stage,count\n")

	_, err := exporter.Render(Dataset{})
	assert.Error(t, err)
}
