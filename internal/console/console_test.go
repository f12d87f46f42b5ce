package console

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	in, err := Parse("  GET Report.TXT ", "get", "send", "exit")
	require.NoError(t, err)
	require.Equal(t, Input{Verb: "get", Arg: "Report.TXT"}, in)

	in, err = Parse("get", "get", "send", "exit")
	require.NoError(t, err)
	require.Equal(t, Input{Verb: "get"}, in)

	in, err = Parse("send my file.txt", "get", "send", "exit")
	require.NoError(t, err)
	require.Equal(t, "my file.txt", in.Arg)

	in, err = Parse("Exit", "get", "send", "exit")
	require.NoError(t, err)
	require.Equal(t, "exit", in.Verb)
}

func TestParseRejectsUnknownVerb(t *testing.T) {
	for _, line := range []string{"", "list", "getall", "dir"} {
		_, err := Parse(line, "get", "send", "exit")
		require.ErrorIs(t, err, ErrInvalidInput, line)
	}
}

func TestReaderConsolePromptsPerLine(t *testing.T) {
	var out bytes.Buffer
	c := NewReader(strings.NewReader("get a\nexit\n"), &out, ">>> ")

	line, err := c.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "get a", line)

	line, err = c.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "exit", line)

	_, err = c.ReadLine()
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, ">>> >>> >>> ", out.String())

	c.Printf("%d files\n", 2)
	require.True(t, strings.HasSuffix(out.String(), "2 files\n"))
	require.NoError(t, c.Close())
}

func TestCookedWithoutTerminalRunsFn(t *testing.T) {
	c := NewReader(strings.NewReader(""), io.Discard, "> ")
	ran := false
	err := c.Cooked(func() error {
		ran = true
		return io.ErrUnexpectedEOF
	})
	require.True(t, ran)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "closing twice is harmless")
	require.NoError(t, c.Cooked(func() error { return nil }))
}
