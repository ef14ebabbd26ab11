package command

import (
	"context"
	"fmt"
	"sync"
)

// FakeResponse is a canned response for FakeRunner.
type FakeResponse struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Func, when set, is called instead of returning the canned output.
	Func func(Cmd) (*Result, error)
}

// FakeRunner returns canned responses keyed by the quoted command line.
// It is safe for concurrent use.
type FakeRunner struct {
	Responses map[string]FakeResponse
	// Default is used for command lines missing from Responses.
	// When nil an unexpected command is an error.
	Default *FakeResponse

	mtx   sync.Mutex
	calls []Cmd
}

// NewFakeRunner returns an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{Responses: map[string]FakeResponse{}}
}

// Set registers stdout for the command line formed by name and args.
func (f *FakeRunner) Set(stdout string, name string, args ...string) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.Responses[Cmd{Name: name, Args: args}.Cmdline()] = FakeResponse{Stdout: stdout}
}

// SetResponse registers a full response for the command line formed by name and args.
func (f *FakeRunner) SetResponse(resp FakeResponse, name string, args ...string) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.Responses[Cmd{Name: name, Args: args}.Cmdline()] = resp
}

// Calls returns the command lines run so far.
func (f *FakeRunner) Calls() []string {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	var out []string
	for _, c := range f.calls {
		out = append(out, c.Cmdline())
	}
	return out
}

// Run implements Runner.
func (f *FakeRunner) Run(ctx context.Context, c Cmd) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mtx.Lock()
	f.calls = append(f.calls, c)
	resp, ok := f.Responses[c.Cmdline()]
	if !ok && f.Default != nil {
		resp, ok = *f.Default, true
	}
	f.mtx.Unlock()

	if !ok {
		return nil, fmt.Errorf("fake runner: unexpected command %s", c.Cmdline())
	}
	if resp.Func != nil {
		return resp.Func(c)
	}

	if c.Stdout != nil {
		fmt.Fprint(c.Stdout, resp.Stdout)
	}
	if c.Stderr != nil {
		fmt.Fprint(c.Stderr, resp.Stderr)
	}
	res := &Result{
		Stdout:   []byte(resp.Stdout),
		Stderr:   []byte(resp.Stderr),
		ExitCode: resp.ExitCode,
	}
	if resp.ExitCode != 0 {
		return res, &Error{Cmdline: c.Cmdline(), ExitCode: resp.ExitCode, Stderr: resp.Stderr}
	}
	return res, nil
}
