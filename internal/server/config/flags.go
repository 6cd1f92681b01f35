package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/avifconv/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-w string   watch directory
//	-o string   output directory
//	-f string   output format (jpg|png)
//	-q float    jpeg quality (0..1)
//	-a string   gRPC status service address
//	-m string   metrics address, empty to disable
//	-b int      debounce, milliseconds
//	-l string   message locale
//	-v string   log level
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-w", "-o", "-f", "-q", "-a", "-m", "-b", "-l", "-v"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.WatchDir, "w", config.WatchDir, "watch directory")
	fs.StringVar(&config.OutputDir, "o", config.OutputDir, "output directory")
	fs.StringVar(&config.Format, "f", config.Format, "output format (jpg|png)")
	fs.Float64Var(&config.Quality, "q", config.Quality, "jpeg quality (0..1)")
	fs.StringVar(&config.GRPCAddr, "a", config.GRPCAddr, "address and port of the status service")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "address and port of the metrics endpoint")
	debounce := fs.Int("b", int(config.Debounce.Milliseconds()), "debounce (in milliseconds)")
	fs.StringVar(&config.Locale, "l", config.Locale, "message locale")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.Debounce = time.Duration(*debounce) * time.Millisecond
}
