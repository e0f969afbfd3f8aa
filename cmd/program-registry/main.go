// Command program-registry uploads and downloads programs from a registry
// and computes program hashes offline.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ignis-runtime/program-registry/internal/artifact"
	"github.com/ignis-runtime/program-registry/internal/client"
	"github.com/ignis-runtime/program-registry/internal/layout"
)

var (
	serverURL   string
	timeout     time.Duration
	filePath    string
	programHash string
	outPath     string
)

var rootCmd = &cobra.Command{
	Use:           "program-registry",
	Short:         "Store and fetch compiled Cairo programs by program hash",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a compiled program",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(filePath)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		res, err := client.New(serverURL).Upload(ctx, filepath.Base(filePath), raw)
		if err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}

		if res.AlreadyExists {
			fmt.Fprintln(cmd.OutOrStdout(), "Program already stored")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Program hash: %s\nLayout: %s\n", res.Hash, res.Layout)
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download a program by hash",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		raw, err := client.New(serverURL).Download(ctx, programHash)
		if err != nil {
			return fmt.Errorf("download failed: %w", err)
		}

		out := outPath
		if out == "" {
			out = programHash + ".json"
		}
		if err := os.WriteFile(out, raw, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", out, len(raw))
		return nil
	},
}

var metadataCmd = &cobra.Command{
	Use:   "metadata",
	Short: "Show the version and layout of a stored program",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		meta, err := client.New(serverURL).Metadata(ctx, programHash)
		if err != nil {
			return fmt.Errorf("metadata lookup failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Version: %d\nLayout: %s\nBuiltins: %s\n",
			meta.Version, meta.Layout, strings.Join(meta.Builtins, ", "))
		return nil
	},
}

var hashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Compute the program hash and layout locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(filePath)
		if err != nil {
			return err
		}

		canonical, err := artifact.Inspect(raw)
		if err != nil {
			return err
		}

		catalog, err := layout.DefaultCatalog()
		if err != nil {
			return err
		}
		spec := catalog.Resolve(canonical.Builtins)

		fmt.Fprintf(cmd.OutOrStdout(), "Program hash: %s\nVersion: %d\nBuiltins: %s\nLayout: %s\n",
			canonical.Hash, int(canonical.Version), strings.Join(canonical.Builtins, ", "), spec.Name)
		return nil
	},
}

func init() {
	defaultURL := os.Getenv("REGISTRY_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:3000"
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultURL, "Registry base URL (or set REGISTRY_URL)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Request timeout")

	for _, cmd := range []*cobra.Command{uploadCmd, hashCmd} {
		cmd.Flags().StringVarP(&filePath, "file-path", "f", "", "Path to the compiled program JSON")
		_ = cmd.MarkFlagRequired("file-path")
	}
	for _, cmd := range []*cobra.Command{downloadCmd, metadataCmd} {
		cmd.Flags().StringVarP(&programHash, "program-hash", "p", "", "Program hash")
		_ = cmd.MarkFlagRequired("program-hash")
	}
	downloadCmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default <hash>.json)")

	rootCmd.AddCommand(uploadCmd, downloadCmd, metadataCmd, hashCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
