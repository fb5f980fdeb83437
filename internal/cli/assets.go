package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nerrad567/asset-registry/internal/asset"
	"github.com/nerrad567/asset-registry/internal/console"
)

func newListCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all assets, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			assets, total, err := a.api.List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(a.out, assets)
			}
			if len(assets) == 0 {
				fmt.Fprintln(a.out, styleMuted.Render(console.MsgNoAssets))
				return nil
			}
			fmt.Fprintln(a.out, renderAssetTable(assets, -1))
			fmt.Fprintln(a.out, styleMuted.Render(console.CountLabel(total)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the assets as JSON")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := a.api.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(a.out, found)
			}
			printAsset(a.out, *found)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the asset as JSON")
	return cmd
}

// assetFlags are the writable fields as given on the command line.
type assetFlags struct {
	name   string
	serial string
	status string
	date   string
	oee    string
}

func (f *assetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "asset name")
	cmd.Flags().StringVar(&f.serial, "serial", "", "serial number (unique)")
	cmd.Flags().StringVar(&f.status, "status", "", "RUNNING, MAINTENANCE or DOWN")
	cmd.Flags().StringVar(&f.date, "date", "", "last maintenance date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.oee, "oee", "", "OEE score between 0 and 100")
}

var assetFlagNames = []string{"name", "serial", "status", "date", "oee"}

func (f *assetFlags) anyChanged(cmd *cobra.Command) bool {
	for _, name := range assetFlagNames {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// apply overwrites the fields of p whose flag was set on cmd.
func (f *assetFlags) apply(cmd *cobra.Command, p *asset.Payload) {
	flags := cmd.Flags()
	if flags.Changed("name") {
		p.AssetName = strings.TrimSpace(f.name)
	}
	if flags.Changed("serial") {
		p.SerialNumber = strings.TrimSpace(f.serial)
	}
	if flags.Changed("status") {
		p.Status = asset.Status(strings.TrimSpace(f.status))
	}
	if flags.Changed("date") {
		p.LastMaintenanceDate = strings.TrimSpace(f.date)
	}
	if flags.Changed("oee") {
		p.OEEScore = asset.ParseScore(strings.TrimSpace(f.oee))
	}
}

func newCreateCmd(a *app) *cobra.Command {
	var f assetFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new asset",
		Example: `  assetctl create --name "Press 4" --serial SN-1004 \
    --status RUNNING --date 2024-03-01 --oee 87.5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var p asset.Payload
			f.apply(cmd, &p)

			created, err := a.api.Create(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, formatSuccess(console.MsgCreated))
			printAsset(a.out, *created)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var f assetFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change an asset; fields without a flag keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !f.anyChanged(cmd) {
				return fmt.Errorf("nothing to update: set at least one of --name, --serial, --status, --date, --oee")
			}

			current, err := a.api.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			p := asset.PayloadFrom(*current)
			f.apply(cmd, &p)

			updated, err := a.api.Update(cmd.Context(), args[0], p)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, formatSuccess(console.MsgUpdated))
			printAsset(a.out, *updated)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an asset",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if !yes {
				target, err := a.api.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, formatWarning(console.MsgConfirmDelete))
				prompt := fmt.Sprintf("Delete %s (%s)? [y/N]: ", target.AssetName, target.SerialNumber)
				if !confirm(a.in, a.out, prompt) {
					fmt.Fprintln(a.out, formatInfo("Cancelled"))
					return nil
				}
			}

			if err := a.api.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintln(a.out, formatSuccess(console.MsgDeleted))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := a.api.Health(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, formatSuccess(fmt.Sprintf("%s is %s (%s)", a.server, h.Status, h.Timestamp)))
			return nil
		},
	}
}

// confirm prints prompt and reports whether the answer starts with y.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func printAsset(w io.Writer, a asset.Asset) {
	label := func(s string) string { return styleHeader.Render(fmt.Sprintf("%-18s", s)) }

	fmt.Fprintf(w, "%s %s\n", label("ID"), a.ID)
	fmt.Fprintf(w, "%s %s\n", label("Asset Name"), a.AssetName)
	fmt.Fprintf(w, "%s %s\n", label("Serial Number"), a.SerialNumber)
	fmt.Fprintf(w, "%s %s\n", label("Status"), statusStyle(a.Status).Render(string(a.Status)))
	fmt.Fprintf(w, "%s %s\n", label("Last Maintenance"), console.FormatDate(a.LastMaintenanceDate))
	fmt.Fprintf(w, "%s %s\n", label("OEE Score"), console.FormatOEE(a.OEEScore))
	if !a.CreatedAt.IsZero() {
		fmt.Fprintf(w, "%s %s\n", label("Created"), a.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "%s %s\n", label("Updated"), a.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
