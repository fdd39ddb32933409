// Package report prints the end-of-run summary for the operator.
package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"ikh/dicom-extraction/internal/orchestrator"
)

var (
	success = color.New(color.FgHiGreen, color.Bold)
	failed  = color.New(color.FgHiRed, color.Bold)
	info    = color.New(color.FgHiCyan, color.Bold)
	warn    = color.New(color.FgHiYellow, color.Bold)
)

// Print writes the summary of s to w, with a table of skipped files when any
// were left out.
func Print(w io.Writer, s *orchestrator.Summary) error {
	infoTag := info.Sprint("[INFO]")

	fmt.Fprintln(w)
	fmt.Fprintln(w, "------------")
	if s.State != orchestrator.StateDone {
		fmt.Fprintf(w, "%s run stopped in state %s\n", failed.Sprint("[FAILED]"), s.State)
		return nil
	}

	fmt.Fprintln(w, success.Sprint("[SUCCESS]"))
	fmt.Fprintf(w, "%s Saved metadata for %d images to %s\n", infoTag, s.Records, s.TablePath)
	fmt.Fprintf(w, "%s Saved %d images to %s\n", infoTag, s.Images, s.ImageDir)

	if len(s.Skipped) > 0 {
		fmt.Fprintf(w, "%s %d files were skipped:\n", warn.Sprint("[WARNING]"), len(s.Skipped))
		table := tablewriter.NewWriter(w)
		table.Header("File", "Kind", "Reason")
		for _, skip := range s.Skipped {
			if err := table.Append([]string{skip.Path, string(skip.Kind), skip.Reason}); err != nil {
				return fmt.Errorf("append skip row: %w", err)
			}
		}
		if err := table.Render(); err != nil {
			return fmt.Errorf("render skip table: %w", err)
		}
	}

	color.New(color.FgHiYellow).Fprintln(w,
		"Remember to look over all images and all CSVs manually to ensure that "+
			"there is no personal health information (PHI)")
	return nil
}
