package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zuriciver-web/v0-technical-visit-form/internal/photo"
	"github.com/zuriciver-web/v0-technical-visit-form/internal/report"
	"github.com/zuriciver-web/v0-technical-visit-form/internal/visit"
)

func newRenderCmd() *cobra.Command {
	var (
		output     string
		maxDim     int
		quality    int
		maxPixels  int64
		uncompress bool
	)

	cmd := &cobra.Command{
		Use:   "render <record.json|->",
		Short: "Render a visit record to PDF without a server",
		Long: `Render a visit record stored as JSON (the same body the form posts to
/api/generate-pdf) into a PDF report. Use - to read the record from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := readRecord(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if err := rec.Validate(); err != nil {
				return err
			}

			r := report.NewRenderer(report.Options{
				Image:        photo.NormalizeOptions{MaxDimension: maxDim, Quality: quality, MaxPixels: maxPixels},
				Uncompressed: uncompress,
			}, nil)
			rep, err := r.Render(cmd.Context(), rec)
			if err != nil {
				return fmt.Errorf("rendering report: %w", err)
			}

			path := output
			if path == "" {
				path = rep.Filename
			}
			if err := os.WriteFile(path, rep.PDF, 0o644); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}

			return printReport(cmd.OutOrStdout(), reportResult{
				File:     path,
				ReportID: rep.ID,
				Pages:    rep.Pages,
				Bytes:    len(rep.PDF),
				Failed:   rep.Failed,
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: visita-tecnica-<code>.pdf)")
	cmd.Flags().IntVar(&maxDim, "max-dim", photo.DefaultMaxDimension, "longest photo side in pixels")
	cmd.Flags().IntVar(&quality, "quality", photo.DefaultQuality, "JPEG quality for embedded photos (1-100)")
	cmd.Flags().Int64Var(&maxPixels, "max-pixels", photo.DefaultMaxPixels, "largest photo accepted, in pixels (width*height)")
	cmd.Flags().BoolVar(&uncompress, "uncompressed", false, "write uncompressed page streams")

	return cmd
}

// readRecord decodes a visit record from a file, or from in when path is "-".
func readRecord(in io.Reader, path string) (*visit.Record, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading record: %w", err)
	}

	var rec visit.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing record: %w", err)
	}
	return &rec, nil
}
