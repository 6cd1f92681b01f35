package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	calls []string
	args  []string
}

func (f *fakeExec) record(name string, args ...string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, strings.Join(args, " "))
	return nil
}

func (f *fakeExec) Add(ctx context.Context, paths []string) error { return f.record("add", paths...) }
func (f *fakeExec) List(ctx context.Context) error                { return f.record("list") }
func (f *fakeExec) Remove(ctx context.Context, ref string) error  { return f.record("remove", ref) }
func (f *fakeExec) Clear(ctx context.Context) error               { return f.record("clear") }
func (f *fakeExec) Mode(ctx context.Context, arg string) error    { return f.record("mode", arg) }
func (f *fakeExec) Quality(ctx context.Context, arg string) error { return f.record("quality", arg) }
func (f *fakeExec) Convert(ctx context.Context) error             { return f.record("convert") }
func (f *fakeExec) Status(ctx context.Context) error              { return f.record("status") }
func (f *fakeExec) Save(ctx context.Context, ref string) error    { return f.record("save", ref) }
func (f *fakeExec) Download(ctx context.Context) error            { return f.record("download") }
func (f *fakeExec) Batch(ctx context.Context) error               { return f.record("batch") }
func (f *fakeExec) Env(ctx context.Context) error                 { return f.record("env") }
func (f *fakeExec) View(ctx context.Context) error                { return f.record("view") }

func silence(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) {
		parts := make([]string, len(a))
		for i, v := range a {
			parts[i], _ = v.(string)
		}
		lines = append(lines, strings.Join(parts, " "))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })
	return &lines
}

func TestRunREPL_Dispatch(t *testing.T) {
	silence(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"add a.avif dir",
		"",
		"l",
		"mode png",
		"quality 0.5",
		"convert",
		"status",
		"save 2",
		"download",
		"batch",
		"env",
		"view",
		"rm 1",
		"clear",
		"exit",
		"list",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewScanner(input))

	assert.Equal(t, []string{
		"add", "list", "mode", "quality", "convert", "status", "save",
		"download", "batch", "env", "view", "remove", "clear",
	}, exec.calls)
	assert.Equal(t, "a.avif dir", exec.args[0])
	assert.Equal(t, "png", exec.args[2])
	assert.Equal(t, "0.5", exec.args[3])
	assert.Equal(t, "2", exec.args[6])
	assert.Equal(t, "1", exec.args[11])
}

func TestRunREPL_UnknownAndMissingArgs(t *testing.T) {
	lines := silence(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewScanner(strings.NewReader("frobnicate\nsave\nquit\n")))

	assert.Equal(t, []string{"save"}, exec.calls)
	assert.Equal(t, []string{""}, exec.args)
	assert.Contains(t, *lines, "Unknown command: frobnicate")
	assert.Equal(t, "Bye!", (*lines)[len(*lines)-1])
}

func TestRunREPL_StopsOnEOFAndCancel(t *testing.T) {
	silence(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewScanner(strings.NewReader("list")))
	assert.Equal(t, []string{"list"}, exec.calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec = &fakeExec{}
	runREPL(ctx, exec, func() string { return "s" }, bufio.NewScanner(strings.NewReader("list\n")))
	assert.Empty(t, exec.calls)
}
