package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/nerrad567/asset-registry/internal/asset"
	"github.com/nerrad567/asset-registry/internal/console"
)

const (
	formatXLSX = "xlsx"
	formatHTML = "html"

	exportSheet = "Assets"
	exportTitle = "Industrial Asset Registry"
)

var exportHeaders = []string{
	"Serial Number", "Asset Name", "Status", "Last Maintenance Date",
	"OEE Score", "ID", "Created At", "Updated At",
}

var exportColumnWidths = []float64{20, 30, 15, 22, 12, 38, 22, 22}

func newExportCmd(a *app) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all assets to a spreadsheet or HTML page",
		Example: `  assetctl export --format xlsx --output assets.xlsx
  assetctl export --format html --output - > assets.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var write func(io.Writer, []asset.Asset) error
			switch format {
			case formatXLSX:
				write = writeXLSX
			case formatHTML:
				write = func(w io.Writer, assets []asset.Asset) error {
					return writeHTML(w, assets, time.Now())
				}
			default:
				return fmt.Errorf("unknown format %q: must be %s or %s", format, formatXLSX, formatHTML)
			}
			if output == "" {
				output = "assets." + format
			}

			assets, _, err := a.api.List(cmd.Context())
			if err != nil {
				return err
			}

			if output == "-" {
				return write(a.out, assets)
			}

			f, err := os.Create(output) //nolint:gosec // operator-chosen path
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			if err := write(f, assets); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", output, err)
			}

			fmt.Fprintln(a.err, formatSuccess(fmt.Sprintf("Exported %s to %s", console.CountLabel(len(assets)), output)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatXLSX, "output format: xlsx or html")
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file, "-" for stdout (default assets.<format>)`)
	return cmd
}

// writeXLSX writes assets as a single-sheet workbook with a frozen,
// styled header row.
func writeXLSX(w io.Writer, assets []asset.Asset) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	scoreStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		return fmt.Errorf("creating score style: %w", err)
	}

	for i, header := range exportHeaders {
		if err := setCell(f, i+1, 1, header); err != nil {
			return err
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("converting column number: %w", err)
		}
		if err := f.SetColWidth(exportSheet, col, col, exportColumnWidths[i]); err != nil {
			return fmt.Errorf("setting column width: %w", err)
		}
	}
	if err := f.SetCellStyle(exportSheet, "A1", lastHeaderCell(), headerStyle); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	for i, a := range assets {
		row := i + 2
		values := []any{
			a.SerialNumber,
			a.AssetName,
			string(a.Status),
			a.LastMaintenanceDate,
			a.OEEScore,
			a.ID,
			formatTimestamp(a.CreatedAt),
			formatTimestamp(a.UpdatedAt),
		}
		for col, v := range values {
			if err := setCell(f, col+1, row, v); err != nil {
				return err
			}
		}
		cell, err := excelize.CoordinatesToCellName(5, row)
		if err != nil {
			return fmt.Errorf("converting coordinates: %w", err)
		}
		if err := f.SetCellStyle(exportSheet, cell, cell, scoreStyle); err != nil {
			return fmt.Errorf("styling score at row %d: %w", row, err)
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// writeHTML writes a standalone page with the same table the web UI shows.
func writeHTML(w io.Writer, assets []asset.Asset, generated time.Time) error {
	r, err := console.NewRenderer()
	if err != nil {
		return err
	}
	return r.Page(w, exportTitle, assets, generated)
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("converting coordinates: %w", err)
	}
	if err := f.SetCellValue(exportSheet, cell, value); err != nil {
		return fmt.Errorf("setting %s: %w", cell, err)
	}
	return nil
}

func lastHeaderCell() string {
	cell, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	return cell
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
