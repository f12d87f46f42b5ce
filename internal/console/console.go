package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// ErrInvalidInput is returned by Parse for lines that name no known command.
var ErrInvalidInput = errors.New("invalid input, please enter valid cmd")

// Input is one parsed prompt line. Verb is lowercased; Arg keeps its case.
type Input struct {
	Verb string
	Arg  string
}

// Parse splits a prompt line into a verb from allowed and its argument.
func Parse(line string, allowed ...string) (Input, error) {
	line = strings.TrimSpace(line)
	verb, arg, _ := strings.Cut(line, " ")
	verb = strings.ToLower(verb)
	for _, a := range allowed {
		if verb == a {
			return Input{Verb: verb, Arg: strings.TrimSpace(arg)}, nil
		}
	}
	return Input{}, fmt.Errorf("%w: %q", ErrInvalidInput, line)
}

// Console is a line-oriented prompt. On a terminal it uses raw mode with line
// editing; otherwise it reads plain lines.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	prompt  string
	term    *term.Terminal
	scanner *bufio.Scanner

	fd       int
	oldState *term.State
	closed   bool
}

// New opens a console on stdin/stdout, switching to raw mode when stdin is a
// terminal. Close must be called to restore the terminal.
func New(prompt string) (*Console, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return NewReader(os.Stdin, os.Stdout, prompt), nil
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to set raw terminal mode: %w", err)
	}
	rw := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}
	t := term.NewTerminal(rw, prompt)
	if width, height, err := term.GetSize(fd); err == nil {
		_ = t.SetSize(width, height)
	}
	return &Console{out: t, prompt: prompt, term: t, fd: fd, oldState: oldState}, nil
}

// NewReader builds a console over plain streams.
func NewReader(r io.Reader, w io.Writer, prompt string) *Console {
	return &Console{out: w, prompt: prompt, scanner: bufio.NewScanner(r)}
}

// ReadLine prompts for and returns the next line. io.EOF means the input ended.
func (c *Console) ReadLine() (string, error) {
	if c.term != nil {
		return c.term.ReadLine()
	}
	c.mu.Lock()
	fmt.Fprint(c.out, c.prompt)
	c.mu.Unlock()
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return c.scanner.Text(), nil
}

// Write prints p without disturbing a prompt being edited.
func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.Write(p)
}

// Println prints a line to the console.
func (c *Console) Println(a ...interface{}) {
	fmt.Fprintln(c, a...)
}

// Printf prints formatted output to the console.
func (c *Console) Printf(format string, a ...interface{}) {
	fmt.Fprintf(c, format, a...)
}

// Cooked runs fn with the terminal back in its original mode, so Ctrl-C
// raises SIGINT while fn blocks. Raw mode is re-entered afterwards unless the
// console was closed in the meantime. Without a terminal fn just runs.
func (c *Console) Cooked(fn func() error) (err error) {
	if c.oldState == nil {
		return fn()
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fn()
	}
	rerr := term.Restore(c.fd, c.oldState)
	c.mu.Unlock()
	if rerr != nil {
		return fmt.Errorf("failed to restore terminal mode: %w", rerr)
	}

	defer func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			return
		}
		if _, rerr := term.MakeRaw(c.fd); rerr != nil && err == nil {
			err = fmt.Errorf("failed to set raw terminal mode: %w", rerr)
		}
	}()
	return fn()
}

// Close restores the terminal state if raw mode was entered.
func (c *Console) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.oldState == nil {
		c.closed = true
		return nil
	}
	c.closed = true
	return term.Restore(c.fd, c.oldState)
}
