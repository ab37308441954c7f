package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/openai-cli/internal/cache"
	"github.com/salmonumbrella/openai-cli/internal/update"
)

// version is set at build time via ldflags
var version = "dev"

var releasesURL = update.ReleasesURL

type versionInfo struct {
	Version   string         `json:"version"`
	GoVersion string         `json:"go_version"`
	Platform  string         `json:"platform"`
	Update    *update.Result `json:"update,omitempty"`
}

func newVersionCmd() *cobra.Command {
	var skipCheck bool
	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print version information",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			info := versionInfo{
				Version:   version,
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			}
			if !skipCheck {
				info.Update = updateChecker().CheckQuietly(cmd.Context(), version)
			}

			if isJSON(cmd) {
				return printJSON(cmd, info)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "oai version %s (%s, %s)\n", info.Version, info.GoVersion, info.Platform)
			if info.Update != nil && info.Update.UpdateAvailable {
				errOut := cmd.ErrOrStderr()
				_, _ = fmt.Fprintf(errOut, "\nUpdate available: %s -> %s\n", info.Update.CurrentVersion, info.Update.LatestVersion)
				_, _ = fmt.Fprintf(errOut, "Download: %s\n", info.Update.UpdateURL)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&skipCheck, "no-update-check", false, "Skip the release check")
	return cmd
}

// updateChecker reuses a release lookup for a day unless --no-cache is set.
func updateChecker() *update.Checker {
	c := update.NewChecker(nil)
	c.URL = releasesURL
	if !flags.NoCache {
		c.Store = cache.NewFileStoreWithTTL(resolveCacheDir(), cache.Scope{Key: "release", BaseURL: releasesURL}, update.CacheTTL)
	}
	return c
}
