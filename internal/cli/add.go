package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	addTitle string
	addStdin bool
)

var addCmd = &cobra.Command{
	Use:   "add [path]",
	Short: "Add sources to the library",
	Long: `Add a file or every supported file under a directory to the library.
Plain text, Markdown and PDF files are extracted to text. A file already in
the library under the same path is replaced, keeping its title and include flag.
With --stdin the text is read from standard input instead.

Examples:
  cortex add .                          # Add the current directory
  cortex add report.pdf                 # Add one file
  pbpaste | cortex add --stdin -t Notes # Add pasted text`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addTitle, "title", "t", "Pasted text", "title for text read from stdin")
	addCmd.Flags().BoolVar(&addStdin, "stdin", false, "read the source text from stdin")
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	st, err := openLibrary()
	if err != nil {
		return err
	}
	defer st.Close()

	ingestUC := newIngest(cfg, st)

	if addStdin {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		doc, err := ingestUC.AddText(addTitle, string(data))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %q (%s)\n", doc.Title, doc.ID)
		return nil
	}

	path := GetRootDir()
	if len(args) > 0 {
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Scanning %s...\n", path)

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var startTime time.Time

	progressCallback := func(processed, total int, currentFile string) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Adding[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(cmd.ErrOrStderr())
				}),
			)
		}

		bar.Set(processed)

		if processed > 0 {
			elapsed := time.Since(startTime)
			rate := float64(processed) / elapsed.Seconds()
			remaining := total - processed
			if rate > 0 {
				eta := time.Duration(float64(remaining)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Adding[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}

	result, err := ingestUC.IngestPath(cmd.Context(), path, progressCallback)
	if err != nil {
		return fmt.Errorf("adding sources failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nAdding complete:\n")
	fmt.Fprintf(out, "  Sources added:    %d\n", len(result.Added)-result.Replaced)
	fmt.Fprintf(out, "  Sources replaced: %d\n", result.Replaced)
	fmt.Fprintf(out, "  Files skipped:    %d (unsupported)\n", result.Skipped)
	if result.Unreadable > 0 {
		fmt.Fprintf(out, "  Without text:     %d (not searchable)\n", result.Unreadable)
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  - %s\n", e)
		}
	}

	fmt.Fprintf(out, "\nLibrary stored at: %s\n", cfg.LibraryPath(GetRootDir()))
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
