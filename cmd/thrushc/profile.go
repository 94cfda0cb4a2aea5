package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thrushlang/thrushc-sub009/internal/prof"
)

// startProfiles starts the profiles requested on the command line and
// returns the function that finishes them.
func startProfiles(cmd *cobra.Command) (func(), error) {
	flags := cmd.Root().PersistentFlags()
	var cfg prof.Config
	var err error
	if cfg.CPU, err = flags.GetString("cpuprofile"); err != nil {
		return nil, err
	}
	if cfg.Mem, err = flags.GetString("memprofile"); err != nil {
		return nil, err
	}
	if cfg.Trace, err = flags.GetString("runtime-trace"); err != nil {
		return nil, err
	}
	if !cfg.Active() {
		return func() {}, nil
	}
	session, err := prof.Start(cfg)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := session.Stop(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "profile: %v\n", err)
		}
	}, nil
}
