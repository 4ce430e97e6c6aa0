package output_test

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/accounthub/internal/output"
)

func TestFormatter_JSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatJSON, &buf)

	require.NoError(t, f.Print(map[string]string{"address": "5Grw"}))
	assert.True(t, f.IsJSON())

	var got map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "5Grw", got["address"])
	assert.Contains(t, buf.String(), "\n  \"address\"")
}

func TestFormatter_Text(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatText, &buf)

	require.NoError(t, f.Print("hello"))
	require.NoError(t, f.Printf("%d accounts\n", 3))
	require.NoError(t, f.Println("done"))
	assert.Equal(t, "hello\n3 accounts\ndone\n", buf.String())
	assert.Equal(t, output.FormatText, f.Format())
	assert.Same(t, &buf, f.Writer())
}

func TestFormatter_Color(t *testing.T) {
	t.Parallel()
	plain := output.NewFormatter(output.FormatText, nil)
	assert.Equal(t, "name", plain.Bold("name"))

	colored := output.NewFormatter(output.FormatText, nil).WithColor(true)
	assert.Equal(t, "\x1b[1mname\x1b[0m", colored.Bold("name"))
	assert.Equal(t, "\x1b[2mname\x1b[0m", colored.Dim("name"))

	jsonColored := output.NewFormatter(output.FormatJSON, nil).WithColor(true)
	assert.False(t, jsonColored.Color(), "JSON is never styled")
}

func TestParseFormat(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want output.Format
	}{
		{"json", output.FormatJSON},
		{" JSON ", output.FormatJSON},
		{"text", output.FormatText},
		{"auto", output.FormatAuto},
		{"yaml", output.FormatAuto},
		{"", output.FormatAuto},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, output.ParseFormat(tc.in), tc.in)
	}
}

func TestDetectFormat(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	assert.Equal(t, output.FormatText, output.DetectFormat(&buf, output.FormatText))
	assert.Equal(t, output.FormatJSON, output.DetectFormat(&buf, output.FormatAuto), "non-TTY defaults to JSON")

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, output.FormatJSON, output.DetectFormat(f, output.FormatAuto), "regular files are not terminals")
}

func TestColorEnabled(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, output.ColorEnabled(&buf, "always"))
	assert.False(t, output.ColorEnabled(&buf, "never"))
	assert.False(t, output.ColorEnabled(&buf, "auto"), "buffers are not terminals")

	t.Setenv("NO_COLOR", "1")
	assert.False(t, output.ColorEnabled(os.Stdout, "auto"))
	assert.True(t, output.ColorEnabled(os.Stdout, "always"))
}

func TestTable(t *testing.T) {
	t.Parallel()
	tbl := output.NewTable("NAME", "BALANCE")
	tbl.SetAlign(1, output.AlignRight)
	tbl.AddRow("Alice", "12.5")
	tbl.AddRow("Bob", "1000")
	tbl.AddRow("Charlie")

	assert.Equal(t, 3, tbl.Len())
	want := strings.Join([]string{
		"NAME     BALANCE",
		"-------  -------",
		"Alice       12.5",
		"Bob         1000",
		"Charlie",
		"",
	}, "\n")
	assert.Equal(t, want, tbl.String())
}

func TestTable_NoHeaderAndUnicode(t *testing.T) {
	t.Parallel()
	tbl := output.NewTable()
	tbl.AddRow("Ålice", "x")
	tbl.AddRow("Bob", "y")
	assert.Equal(t, "Ålice  x\nBob    y\n", tbl.String())

	assert.Empty(t, output.NewTable().String())
}

func TestTable_WriterError(t *testing.T) {
	t.Parallel()
	tbl := output.NewTable("A")
	tbl.AddRow("1")
	require.Error(t, tbl.Render(failingWriter{}))
}

func TestMessages(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	output.Infof(&buf, "found %d", 2)
	output.Warnf(&buf, "no signer for %s", "5Grw")
	assert.Equal(t, "info: found 2\nwarning: no signer for 5Grw\n", buf.String())
}
