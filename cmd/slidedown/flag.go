package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"
)

type Flag struct {
	URLs       []string
	BatchFile  string
	ConfigFile string
	Help       bool

	set *flag.FlagSet
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("slidedown", flag.ContinueOnError)
	fs.SortFlags = false
	fs.SetOutput(io.Discard)

	fs.BoolP("help", "h", false, "Display this help message and exit")
	fs.StringP("batch", "b", "", "Path to file containing presentation URLs (one per line)")
	fs.StringP("config", "c", "", "Config file (default: ./slidedown.yaml or ~/.config/slidedown/slidedown.yaml)")
	fs.StringP("output", "o", ".", "Directory the PDFs are written to")
	fs.BoolP("force", "f", false, "Overwrite a PDF that already exists instead of skipping the deck")
	fs.Int("from", 0, "First slide to include (1-based, 0 = from the start)")
	fs.Int("to", 0, "Last slide to include (inclusive, 0 = to the end)")
	fs.Bool("no-crop", false, "Keep the white bars around each slide")
	fs.Int("crop-tolerance", 8, "Per-channel colour distance still treated as border padding (0-255)")
	fs.String("user-agent", "", "User-Agent header sent with every request")
	fs.Duration("timeout", 0, "Timeout for fetching the presentation page (default 15s)")
	fs.Duration("image-timeout", 0, "Timeout for fetching each slide image (default 10s)")
	fs.Int("retry", 0, "Retries per request before a slide is skipped")
	fs.Float64("dpi", 96, "Resolution used to size PDF pages from slide pixels")
	fs.String("temp-dir", "", "Parent directory for the temporary slide files (default: system temp)")
	fs.String("log-level", "info", "Log level: debug, info, warn or error")
	fs.String("log-file", "", "Also write JSON logs to this file (rotated)")
	fs.BoolP("quiet", "q", false, "Hide the download progress bar")
	return fs
}

func parseFlag(args []string) (*Flag, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	help, _ := fs.GetBool("help")
	batchFile, _ := fs.GetString("batch")
	configFile, _ := fs.GetString("config")

	f := &Flag{
		URLs:       fs.Args(),
		BatchFile:  batchFile,
		ConfigFile: configFile,
		Help:       help,
		set:        fs,
	}
	if help {
		return f, nil
	}

	if batchFile != "" {
		if len(f.URLs) > 0 {
			return nil, errors.New("cannot use both URL arguments and -b at the same time")
		}
		urls, err := readBatchFile(batchFile)
		if err != nil {
			return nil, err
		}
		f.URLs = urls
	}
	return f, nil
}

// readBatchFile returns the non-empty, non-comment lines of path.
func readBatchFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch file: %w", err)
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading batch file: %w", err)
	}
	if len(urls) == 0 {
		return nil, errors.New("batch file is empty or contains no URLs")
	}
	return urls, nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "slidedown - Download SlideShare presentations as PDF")
	fmt.Fprintln(w, "Usage: slidedown [options] <URL> [URL...]")
	fmt.Fprintln(w, "       slidedown [options] -b <file>")
	fmt.Fprintln(w)
	fmt.Fprint(w, newFlagSet().FlagUsages())
	fmt.Fprintln(w, "\nExamples:")
	fmt.Fprintln(w, "  slidedown https://www.slideshare.net/user/presentation")
	fmt.Fprintln(w, "  slidedown -o decks --from 5 --to 20 https://www.slideshare.net/user/presentation")
	fmt.Fprintln(w, "  slidedown -b urls.txt --no-crop")
}
