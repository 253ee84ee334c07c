// Package main is the entry point for rcsync, which keeps a NetHack rcfile
// in sync with the copies stored on public game servers.
package main

import (
	"errors"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/homemade/rcsync/cmd/rcsync/app"
)

func main() {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	if err := app.NewRootCmd().Execute(); err != nil {
		if !errors.Is(err, app.ErrSitesFailed) {
			logrus.WithError(err).Errorln("rcsync failed")
		}
		os.Exit(1)
	}
}
