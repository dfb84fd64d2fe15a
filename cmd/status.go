package cmd

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/LeeJB-48/embreex4/pkg/installer"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [name...]",
	Short: "show which packages are installed",
	RunE:  status,
}

func status(cmd *cobra.Command, args []string) error {
	c, configPath, err := readCatalog(cmd)
	if err != nil {
		return err
	}

	// status never downloads anything
	i := installer.New(nil, installer.WithBaseDir(filepath.Dir(configPath)))
	out, err := i.Status(cmd.Context(), c, installer.ParseNames(args), currentPlatform(cmd))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tPLATFORM\tARCH\tINSTALLED\tTARGET\tDIGEST")
	for _, s := range out {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%s\n", s.Name, s.Platform, s.Arch, s.Installed, s.Target, s.Digest)
	}
	return w.Flush()
}
