package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/simp-lee/mobi"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	var (
		format      string
		showRecords bool
		showEXTH    bool
		showContent bool
		showText    bool
		coverPath   string
		workers     int
		logLevel    string
		logFormat   string
	)

	return &cli.Command{
		Name:      "mobi-inspect",
		Usage:     "Inspect the headers, metadata and content of a MOBI file",
		ArgsUsage: "<file>",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "output format: text, json or yaml", Value: "text", Destination: &format},
			&cli.BoolFlag{Name: "records", Usage: "list the record directory", Destination: &showRecords},
			&cli.BoolFlag{Name: "exth", Usage: "list every EXTH record", Destination: &showEXTH},
			&cli.BoolFlag{Name: "content", Usage: "print the decoded markup", Destination: &showContent},
			&cli.BoolFlag{Name: "text", Usage: "print the plain text", Destination: &showText},
			&cli.StringFlag{Name: "cover", Usage: "write the cover image to `PATH`", Destination: &coverPath},
			&cli.IntFlag{Name: "workers", Aliases: []string{"j"}, Usage: "decompression workers (0 = one per CPU)", Value: 1, Destination: &workers},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error", Value: "warn", Destination: &logLevel},
			&cli.StringFlag{Name: "log-format", Usage: "text or json", Value: "text", Destination: &logFormat},
		},
		Action: func(_ context.Context, c *cli.Command) error {
			path := c.Args().First()
			if path == "" {
				return errors.New("missing <file> argument")
			}
			logger, err := newLogger(stderr, logLevel, logFormat)
			if err != nil {
				return err
			}
			enc, err := encoderFor(format)
			if err != nil {
				return err
			}

			book, err := mobi.Open(path, mobi.WithLogger(logger), mobi.WithWorkers(workers))
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}

			rep := buildReport(book, reportOptions{
				records: showRecords,
				exth:    showEXTH,
				content: showContent,
				text:    showText,
			})
			rep.File = path

			if coverPath != "" {
				if err := writeCover(book, coverPath); err != nil {
					logger.Warn("cover not written", "path", coverPath, "err", err)
				} else {
					rep.Cover = coverPath
				}
			}
			return enc(stdout, rep)
		},
	}
}

func writeCover(book *mobi.Book, path string) error {
	img, err := book.Cover()
	if err != nil {
		return err
	}
	return os.WriteFile(path, img.Data, 0o644)
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}
