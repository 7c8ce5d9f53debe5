package output

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStruct struct {
	Name  string `json:"name" yaml:"name"`
	Value int    `json:"value" yaml:"value"`
}

type textStruct struct{ testStruct }

func (t textStruct) RenderText(w io.Writer) error {
	return Details(w, t.Name, [][2]string{{"value", "42"}})
}

func (t textStruct) Headers() []string { return []string{"Name"} }
func (t textStruct) Rows() [][]string  { return [][]string{{t.Name}} }

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{name: "text", input: "text", want: FormatText},
		{name: "empty defaults to text", input: "", want: FormatText},
		{name: "table", input: "table", want: FormatTable},
		{name: "json", input: "json", want: FormatJSON},
		{name: "JSON uppercase", input: "JSON", want: FormatJSON},
		{name: "yaml", input: "yaml", want: FormatYAML},
		{name: "yml alias", input: "yml", want: FormatYAML},
		{name: "whitespace trimmed", input: "  table  ", want: FormatTable},
		{name: "invalid format", input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrinterFormats(t *testing.T) {
	data := textStruct{testStruct{Name: "example.com", Value: 42}}

	tests := []struct {
		format Format
		want   string
	}{
		{FormatText, "example.com\n  value: 42\n"},
		{FormatJSON, `"name": "example.com"`},
		{FormatYAML, "name: example.com"},
		{FormatTable, "NAME"},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			var out, status bytes.Buffer
			require.NoError(t, NewPrinter(&out, &status, tt.format, false).Print(data))
			assert.Contains(t, out.String(), tt.want)
			assert.Empty(t, status.String())
		})
	}
}

func TestPrinterTextFallsBackToJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, NewPrinter(&out, io.Discard, FormatText, false).Print(testStruct{Name: "x"}))
	assert.Contains(t, out.String(), `"name": "x"`)
}

func TestPrinterStatusMessages(t *testing.T) {
	var out, status bytes.Buffer
	printer := NewPrinter(&out, &status, FormatText, false)

	printer.Success("success message")
	printer.Warning("warning message")
	printer.Error("error message")
	printer.Info("info message")

	assert.Empty(t, out.String())
	assert.Equal(t, "success message\nwarning message\nerror message\ninfo message\n", status.String())
}

func TestPrinterColor(t *testing.T) {
	var status bytes.Buffer
	printer := NewPrinter(io.Discard, &status, FormatText, true)

	assert.True(t, printer.ColorEnabled())
	printer.Success("ok")
	assert.Equal(t, "\033[32mok\033[0m\n", status.String())
}

func TestDetailsSkipsEmptyValues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Details(&buf, "example.com", [][2]string{{"type", "kerberos"}, {"login-policy", ""}}))
	assert.Equal(t, "example.com\n  type: kerberos\n", buf.String())
}

func TestPrintJSONArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintJSON(&buf, []testStruct{{Name: "a", Value: 1}, {Name: "b", Value: 2}}))
	assert.Contains(t, buf.String(), `"name": "a"`)
	assert.Contains(t, buf.String(), `"name": "b"`)
}
