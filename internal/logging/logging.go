/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */

// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

const (
	FormatAuto    = "auto"
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Init points the global logger at out. format auto picks console output
// when out is a terminal and JSON otherwise.
func Init(level, format string, out io.Writer) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	w, err := writer(format, out)
	if err != nil {
		return err
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()

	return nil
}

func writer(format string, out io.Writer) (io.Writer, error) {
	switch strings.ToLower(format) {
	case "", FormatAuto:
		if isTerminal(out) {
			return consoleWriter(out), nil
		}
		return out, nil
	case FormatConsole:
		return consoleWriter(out), nil
	case FormatJSON:
		return out, nil
	}
	return nil, fmt.Errorf("unsupported log format %q", format)
}

func consoleWriter(out io.Writer) io.Writer {
	return zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
