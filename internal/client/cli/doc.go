// Package cli provides the interactive avifconv command-line client.
//
// It wires the upload queue, the conversion manager, the download service and
// the session state to a small REPL. Typical flow: add files or directories,
// pick jpg or png, convert, then save everything as one ZIP (prepackaged
// while the batch finished) or file by file.
//
// Commands:
//
//	help                 show available commands
//	add <path...>        queue AVIF files; directories are searched recursively
//	list                 show the queue with conversion status
//	remove <id|n>        drop one queued file
//	clear                empty the queue and forget every result
//	mode [jpg|png]       show or set the output format
//	quality [0..1]       show or set the JPEG quality
//	convert              convert the whole queue
//	status               conversion and download statistics
//	save <id|n>          save one converted file
//	download             save every result as one ZIP
//	batch                save every result as separate files
//	env                  check the output directory
//	view                 show the current view and settings
//	exit | quit          leave the program
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
