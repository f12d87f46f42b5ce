package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

type closeRecorder struct {
	name  string
	order *[]string
	err   error
}

func (c *closeRecorder) Close() error {
	*c.order = append(*c.order, c.name)
	return c.err
}

func TestInterruptClosesEverythingThenExits(t *testing.T) {
	sig := make(chan os.Signal, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var order []string
	var out bytes.Buffer
	code := -1
	done := make(chan struct{})
	go func() {
		defer close(done)
		interrupt(sig, &out, cancel, func(c int) { code = c },
			&closeRecorder{name: "client", order: &order, err: errors.New("already closed")},
			&closeRecorder{name: "console", order: &order})
	}()

	sig <- os.Interrupt
	<-done

	require.Equal(t, 130, code)
	require.Equal(t, []string{"client", "console"}, order, "a failing closer does not stop the rest")
	require.ErrorIs(t, ctx.Err(), context.Canceled)
	require.Contains(t, out.String(), "exit called.")
}

func TestInterruptIgnoresClosedSignalChannel(t *testing.T) {
	sig := make(chan os.Signal)
	close(sig)

	exited := false
	var order []string
	interrupt(sig, &bytes.Buffer{}, func() {}, func(int) { exited = true }, &closeRecorder{name: "client", order: &order})
	require.False(t, exited)
	require.Empty(t, order)
}
