package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nerrad567/asset-registry/internal/asset"
	"github.com/nerrad567/asset-registry/internal/console"
)

var assetHeaders = []string{"Serial Number", "Asset Name", "Status", "Last Maintenance", "OEE Score", "ID"}

// assetRow is the display form of one asset, in assetHeaders order.
func assetRow(a asset.Asset) []string {
	return []string{
		a.SerialNumber,
		a.AssetName,
		string(a.Status),
		console.FormatDate(a.LastMaintenanceDate),
		console.FormatOEE(a.OEEScore),
		a.ID,
	}
}

// renderAssetTable draws assets as a bordered table. selected is the row
// to highlight, or -1.
func renderAssetTable(assets []asset.Asset, selected int) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers(assetHeaders...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader.Padding(0, 1)
			}
			style := styleCell
			if col == 2 && row >= 0 && row < len(assets) {
				style = style.Inherit(statusStyle(assets[row].Status))
			}
			if row == selected {
				style = style.Inherit(styleSelected)
			}
			return style
		})

	for _, a := range assets {
		t.Row(assetRow(a)...)
	}
	return t.String()
}
