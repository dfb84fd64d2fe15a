package cmd

import (
	"os"

	"github.com/LeeJB-48/embreex4/pkg/catalog"
	"github.com/LeeJB-48/embreex4/pkg/installer"
	"github.com/LeeJB-48/embreex4/pkg/platform"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "regenerate the sha256 of each catalog entry",
	RunE:  lock,
}

const (
	flagWrite        = "write"
	flagAllPlatforms = "all-platforms"
)

func init() {
	lockCmd.Flags().StringP(flagWrite, "w", "", "path to write the updated catalog to instead of stdout")
	lockCmd.Flags().Bool(flagAllPlatforms, false, "lock entries for every platform, not just the current one")

	_ = lockCmd.MarkFlagFilename(flagWrite, ".json")
}

func lock(cmd *cobra.Command, _ []string) error {
	log := logr.FromContextOrDiscard(cmd.Context())

	writePath, _ := cmd.Flags().GetString(flagWrite)
	allPlatforms, _ := cmd.Flags().GetBool(flagAllPlatforms)

	c, configPath, err := readCatalog(cmd)
	if err != nil {
		return err
	}

	var current *platform.Info
	if !allPlatforms {
		p := currentPlatform(cmd)
		current = &p
	}

	log.Info("generating checksums", "config", configPath)
	out, changed, err := installer.Lock(cmd.Context(), newDownloader(cmd), c, current)
	if err != nil {
		return err
	}
	log.Info("generated checksums", "changed", changed)

	if writePath == "" {
		return catalog.Encode(cmd.OutOrStdout(), out)
	}
	log.Info("exporting catalog", "path", writePath)
	f, err := os.Create(writePath)
	if err != nil {
		return err
	}
	defer f.Close()
	return catalog.Encode(f, out)
}
