package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/avifconv/internal/flagx"
)

// ValueFlags are the flags that consume the following argument.
var ValueFlags = []string{"-o", "-m", "-q", "-l", "-d", "-v", "-c", "-config"}

// parseFlags populates Config fields from command-line flags. Only the flags
// listed in doc.go are considered; os.Args is filtered with flagx.FilterArgs
// first.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-o", "-m", "-q", "-l", "-d", "-p", "-v"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.OutputDir, "o", cfg.OutputDir, "output directory")
	fs.StringVar(&cfg.Mode, "m", cfg.Mode, "output mode (jpg|png)")
	fs.Float64Var(&cfg.Quality, "q", cfg.Quality, "jpeg quality (0..1)")
	fs.StringVar(&cfg.Locale, "l", cfg.Locale, "message locale")
	batchDelay := fs.Int("d", int(cfg.BatchDelay.Milliseconds()), "delay between batch saves (in milliseconds)")
	fs.BoolVar(&cfg.Progress, "p", cfg.Progress, "show progress bar")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.BatchDelay = time.Duration(*batchDelay) * time.Millisecond
}
