package app

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/homemade/rcsync/sync"
)

func runSync(cmd *cobra.Command, opts options) error {
	profiles, err := sync.LoadProfiles(sync.BuiltinProfiles(), opts.Profiles)
	if err != nil {
		return err
	}
	sel, err := opts.selection(profiles.Registry)
	if err != nil {
		return err
	}

	content, err := readRCFile(opts.RCFile)
	if err != nil {
		return err
	}

	if opts.Username == "" {
		return errors.New("username is required")
	}
	if opts.Password == "" {
		opts.Password, err = promptPassword(cmd, opts.Username)
		if err != nil {
			return err
		}
	}

	gameVersion := opts.GameVersion
	if gameVersion == "" {
		gameVersion = profiles.GameVersion
	}

	syncerOpts := []sync.SyncerOption{
		sync.WithLogger(logrus.StandardLogger()),
		sync.WithReporter(newReporter(cmd, opts.Output)),
		sync.WithHTTPClientTimeout(opts.Timeout),
	}
	if opts.Record != "" {
		syncerOpts = append(syncerOpts, sync.WithRecording(opts.Record))
	}
	syncer := sync.NewSyncer(profiles.Registry, syncerOpts...)

	reports, err := syncer.Sync(cmd.Context(), sync.Config{
		Credentials: sync.Credentials{Username: opts.Username, Password: opts.Password},
		Content:     content,
		Sites:       sel,
		GameVersion: gameVersion,
		Silent:      opts.Silent,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", opts.RCFile, err)
	}
	if sync.AnyFailed(reports) {
		return ErrSitesFailed
	}
	return nil
}
