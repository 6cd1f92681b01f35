package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Add(ctx context.Context, paths []string) error
	List(ctx context.Context) error
	Remove(ctx context.Context, ref string) error
	Clear(ctx context.Context) error
	Mode(ctx context.Context, arg string) error
	Quality(ctx context.Context, arg string) error
	Convert(ctx context.Context) error
	Status(ctx context.Context) error
	Save(ctx context.Context, ref string) error
	Download(ctx context.Context) error
	Batch(ctx context.Context) error
	Env(ctx context.Context) error
	View(ctx context.Context) error
}

const helpText = "Available commands: add, (l)ist, remove, clear, mode, quality, convert, status, save, download, batch, env, view, exit"

// runREPL reads commands line by line and dispatches them to a until EOF,
// "exit" or "quit", or until ctx is done.
//
// Errors returned by command handlers are ignored here; handlers report them
// to the user themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("avif> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help", "h", "?":
			printlnFn(helpText)

		case "add":
			_ = a.Add(ctx, args)

		case "l", "list":
			_ = a.List(ctx)

		case "rm", "remove":
			_ = a.Remove(ctx, first(args))

		case "clear":
			_ = a.Clear(ctx)

		case "mode":
			_ = a.Mode(ctx, first(args))

		case "quality":
			_ = a.Quality(ctx, first(args))

		case "convert":
			_ = a.Convert(ctx)

		case "status":
			_ = a.Status(ctx)

		case "save":
			_ = a.Save(ctx, first(args))

		case "download":
			_ = a.Download(ctx)

		case "batch":
			_ = a.Batch(ctx)

		case "env":
			_ = a.Env(ctx)

		case "view":
			_ = a.View(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func first(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// Run starts the REPL on standard input and blocks until the user leaves.
func (a *App) Run(ctx context.Context) error {
	defer a.Close(context.WithoutCancel(ctx))

	printlnFn(titleStyle.Render("avifconv") + mutedStyle.Render("  AVIF to JPG/PNG, type help for commands"))
	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))
	return nil
}
