// Package cli implements the assetctl command line: scripted CRUD against
// the asset API, spreadsheet and HTML exports, and an interactive console.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/asset-registry/internal/client"
)

const (
	defaultServer = "http://localhost:3000"

	// EnvServer overrides the default server when --server is not given.
	EnvServer = "ASSETS_SERVER"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// app carries global flag values and the streams commands write to.
type app struct {
	server  string
	timeout time.Duration

	in  io.Reader
	out io.Writer
	err io.Writer

	api *client.Client
}

// NewRootCmd builds the assetctl command tree reading from in and writing
// to out and errOut.
func NewRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, err: errOut}

	root := &cobra.Command{
		Use:   "assetctl",
		Short: "Manage the industrial asset registry",
		Long: styleTitle.Render("assetctl") + " - Industrial Asset Registry\n\n" +
			"List, create, edit and delete asset records on an asset server,\n" +
			"export them to a spreadsheet or HTML page, or work interactively\n" +
			"in the console.",
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initialize,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVarP(&a.server, "server", "s", defaultServer,
		"asset server base URL (env "+EnvServer+")")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", client.DefaultTimeout,
		"request timeout")

	root.AddCommand(
		newListCmd(a),
		newGetCmd(a),
		newCreateCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newExportCmd(a),
		newConsoleCmd(a),
		newHealthCmd(a),
	)
	return root
}

// Execute runs assetctl with the process's arguments and exits non-zero
// on failure.
func Execute() {
	root := NewRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, formatError(err.Error()))
		os.Exit(1)
	}
}

func (a *app) initialize(cmd *cobra.Command, _ []string) error {
	if !cmd.Flags().Changed("server") {
		if env := os.Getenv(EnvServer); env != "" {
			a.server = env
		}
	}
	a.server = strings.TrimRight(a.server, "/")
	if a.server == "" {
		return fmt.Errorf("server URL must not be empty")
	}
	if a.timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", a.timeout)
	}
	a.api = client.New(a.server, a.timeout)
	return nil
}
