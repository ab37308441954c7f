package cmd

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/openai-cli/internal/cache"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cache",
		Aliases: []string{"ch"},
		Short:   "Manage cached listings (models)",
	}

	cmd.AddCommand(newCacheClearCmd())
	cmd.AddCommand(newCachePathCmd())
	return cmd
}

type cacheClearResult struct {
	Dir          string `json:"dir"`
	FilesRemoved int    `json:"files_removed"`
	Redis        string `json:"redis,omitempty"`
	KeysRemoved  int    `json:"keys_removed,omitempty"`
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached data (files and, when configured, Redis)",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			dir := resolveCacheDir()
			if dir == "" {
				return fmt.Errorf("could not determine cache directory")
			}
			result := cacheClearResult{Dir: dir, FilesRemoved: cache.ClearAll(dir)}

			if redisURL := cache.RedisURL(); redisURL != "" {
				removed, err := cache.ClearRedisURL(cmd.Context(), redisURL)
				if err != nil {
					return fmt.Errorf("failed to clear Redis cache: %w", err)
				}
				result.Redis = redactURL(redisURL)
				result.KeysRemoved = removed
			}

			if isJSON(cmd) {
				return printJSON(cmd, result)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: %s (%d files)\n", dir, result.FilesRemoved)
			if result.Redis != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Redis cache cleared: %s (%d keys)\n", result.Redis, result.KeysRemoved)
			}
			return nil
		}),
	}
}

func newCachePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the cache location",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			dir := resolveCacheDir()
			if dir == "" {
				return fmt.Errorf("could not determine cache directory")
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, dir)
			if redisURL := cache.RedisURL(); redisURL != "" {
				_, _ = fmt.Fprintf(out, "redis: %s\n", redactURL(redisURL))
			}

			entries, err := os.ReadDir(dir)
			if err != nil {
				return nil // directory might not exist yet
			}
			for _, e := range entries {
				if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
					continue
				}
				info, err := e.Info()
				if err != nil {
					continue
				}
				_, _ = fmt.Fprintf(out, "  %s (%d bytes)\n", e.Name(), info.Size())
			}
			return nil
		}),
	}
}

// redactURL hides the password of a connection URL.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "(invalid URL)"
	}
	return u.Redacted()
}
