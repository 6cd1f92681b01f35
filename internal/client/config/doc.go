// Package config loads runtime configuration for the avifconv CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or -config. Files ending in
//     .yaml or .yml are read as YAML, anything else as JSON.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-o string   output directory for saved files
//	-m string   output mode: jpg or png
//	-q float    JPEG quality between 0 and 1
//	-l string   message locale (es, en, fr)
//	-d int      delay between files of a batch save (milliseconds)
//	-p bool     draw a progress bar when stdout is a terminal
//	-v string   log level (debug, info, warn, error)
//
// # File schema
//
// Durations use timex.Duration, so "100ms" and 100000000 are equivalent:
//
//	output_dir: ./converted
//	mode: png
//	quality: 0.8
//	locale: en
//	batch_delay: 250ms
//	progress: false
//
// Keys missing from the file keep their default.
package config
