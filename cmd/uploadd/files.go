package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"fileupload/internal/config"
	"fileupload/internal/upload"
)

// localPlugin builds a plugin over the configured upload directory without
// any host wiring.
func localPlugin() (*upload.Plugin, *upload.Config, error) {
	p, err := upload.New(config.Load().Upload.Section())
	if err != nil {
		return nil, nil, err
	}
	cfg, err := p.Effective()
	if err != nil {
		return nil, nil, err
	}
	return p, cfg, nil
}

func lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List the entries of the upload directory with their public paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, cfg, err := localPlugin()
			if err != nil {
				return err
			}
			names, err := p.All()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range names {
				public, err := upload.PublicPath(cfg, filepath.Join(cfg.Directory, name))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\t%s\n", name, public)
			}
			return nil
		},
	}
}

func catCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <name>",
		Short: "Write a stored file to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := localPlugin()
			if err != nil {
				return err
			}
			b, err := p.Read(args[0])
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
}

func rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>...",
		Short: "Delete stored files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := localPlugin()
			if err != nil {
				return err
			}
			for _, name := range args {
				if err := p.Delete(name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
