package cmd

import (
	"fmt"
	"path/filepath"

	v1 "github.com/LeeJB-48/embreex4/pkg/api/v1"
	"github.com/LeeJB-48/embreex4/pkg/catalog"
	"github.com/LeeJB-48/embreex4/pkg/downloader"
	"github.com/LeeJB-48/embreex4/pkg/installer"
	"github.com/LeeJB-48/embreex4/pkg/platform"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

const (
	flagInstall   = "install"
	flagKeepGoing = "keep-going"
)

func init() {
	command.Flags().StringArrayP(flagInstall, "i", nil, "packages to install, comma or space separated. May be repeated")
	command.Flags().Bool(flagKeepGoing, false, "continue installing the remaining packages after a failure")
}

func install(cmd *cobra.Command, _ []string) error {
	log := logr.FromContextOrDiscard(cmd.Context())

	values, _ := cmd.Flags().GetStringArray(flagInstall)
	keepGoing, _ := cmd.Flags().GetBool(flagKeepGoing)

	names := installer.ParseNames(values)
	if len(names) == 0 {
		return cmd.Help()
	}

	c, configPath, err := readCatalog(cmd)
	if err != nil {
		return err
	}
	for _, name := range names {
		if len(c.Lookup(name)) == 0 {
			log.Info("warning: package is not in the catalog", "name", name, "config", configPath)
		}
	}

	i := installer.New(
		newDownloader(cmd),
		installer.WithBaseDir(filepath.Dir(configPath)),
		installer.WithKeepGoing(keepGoing),
	)
	results, err := i.Install(cmd.Context(), c, names, currentPlatform(cmd))
	for _, r := range results {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", r.Name, r.Outcome, r.Target)
	}
	return err
}

// readCatalog loads the catalog named by the config flag
// and returns it alongside its absolute path.
func readCatalog(cmd *cobra.Command) (v1.Catalog, string, error) {
	configPath, _ := cmd.Flags().GetString(flagConfig)
	if configPath == "" {
		configPath = catalog.DefaultName
	}
	configPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", catalog.ErrConfig, err)
	}
	c, err := catalog.Read(cmd.Context(), configPath)
	if err != nil {
		return nil, "", err
	}
	return c, configPath, nil
}

func newDownloader(cmd *cobra.Command) *downloader.Downloader {
	progress, _ := cmd.Flags().GetBool(flagProgress)
	var opts []downloader.Option
	if progress {
		opts = append(opts, downloader.WithProgress(cmd.ErrOrStderr()))
	}
	return downloader.NewDownloader(opts...)
}

func currentPlatform(cmd *cobra.Command) platform.Info {
	current := platform.Current()
	if s, _ := cmd.Flags().GetString(flagOS); s != "" {
		current.OS = s
	}
	if s, _ := cmd.Flags().GetString(flagArch); s != "" {
		current.Arch = s
	}
	return current
}
