package shutdown

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeOutputs struct {
	calls int
	err   error
}

func (f *fakeOutputs) AllOff() error {
	f.calls++
	return f.err
}

func captureExit(t *testing.T) *int {
	code := -1
	ExitFunc = func(c int) { code = c }
	t.Cleanup(func() { ExitFunc = os.Exit })
	return &code
}

func TestShutdown(t *testing.T) {
	code := captureExit(t)
	outs := &fakeOutputs{}

	Shutdown(outs, 0)

	assert.Equal(t, 1, outs.calls)
	assert.Equal(t, 0, *code)
}

func TestShutdown_AllOffFailureStillExits(t *testing.T) {
	code := captureExit(t)
	outs := &fakeOutputs{err: errors.New("pin 17: exit status 1")}

	Shutdown(outs, 0)

	assert.Equal(t, 1, outs.calls)
	assert.Equal(t, 0, *code)
}

func TestShutdownWithError(t *testing.T) {
	code := captureExit(t)
	outs := &fakeOutputs{}

	ShutdownWithError(outs, errors.New("boom"), "Unrecoverable hardware error")

	assert.Equal(t, 1, outs.calls)
	assert.Equal(t, 1, *code)
}
