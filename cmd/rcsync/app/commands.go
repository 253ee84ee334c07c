// Package app provides the rcsync command line.
package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/homemade/rcsync/sync"
)

// EnvPrefix prefixes the environment variables bound to flags, e.g. RCSYNC_PASSWORD.
const EnvPrefix = "RCSYNC"

// ErrSitesFailed is returned when at least one site ended in a failure outcome.
// The reports have already been printed, so callers only need the exit code.
var ErrSitesFailed = errors.New("one or more sites failed to sync")

// NewRootCmd creates the rcsync command. Each call returns an independent command tree.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "rcsync [USER [PASS]]",
		Short: "Upload your rcfile to NetHack servers when it has changed",
		Long: `rcsync compares your local rcfile with the copy stored on each enabled
server and uploads it only where the stored copy differs. After an upload the
stored copy is fetched again to make sure the server kept what was sent.`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}
			if v.GetBool("verbose") {
				logrus.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := optionsFromViper(v, args)
			if err != nil {
				return err
			}
			return runSync(cmd, opts)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Log each step of the sync")
	pf.String("profiles", "", "YAML file layered over the built-in site profiles")

	f := rootCmd.Flags()
	f.StringP("username", "u", "", "Account name on the servers")
	f.StringP("password", "p", "", "Account password (prompted for when omitted on a terminal)")
	f.StringP("rcfile", "f", defaultRCFile, "rcfile to upload")
	f.StringSlice("site", nil, "Only sync these sites (repeatable, default all)")
	f.StringSlice("skip", nil, "Do not sync these sites (repeatable)")
	f.String("game-version", "", "Game version the rcfile is for (default from profiles)")
	f.BoolP("silent", "s", false, "Print nothing, report only through the exit code")
	f.StringP("output", "o", outputText, "Output format (text, json)")
	f.String("record", "", "Record every request and response under this directory")
	f.Duration("timeout", sync.HTTPRequestTimeout, "Timeout for each request to a site")

	rootCmd.AddCommand(newSitesCmd(v))

	return rootCmd
}

// options is the explicit configuration record handed to the sync run.
type options struct {
	Username    string
	Password    string
	RCFile      string
	Sites       []string
	Skip        []string
	GameVersion string
	Silent      bool
	Output      string
	Profiles    string
	Record      string
	Timeout     time.Duration
}

func optionsFromViper(v *viper.Viper, args []string) (options, error) {
	opts := options{
		Username:    v.GetString("username"),
		Password:    v.GetString("password"),
		RCFile:      v.GetString("rcfile"),
		Sites:       siteList(v, "site"),
		Skip:        siteList(v, "skip"),
		GameVersion: v.GetString("game-version"),
		Silent:      v.GetBool("silent"),
		Output:      v.GetString("output"),
		Profiles:    v.GetString("profiles"),
		Record:      v.GetString("record"),
		Timeout:     v.GetDuration("timeout"),
	}
	// USER PASS positional arguments, as accepted by earlier versions
	if len(args) > 0 {
		opts.Username = args[0]
	}
	if len(args) > 1 {
		opts.Password = args[1]
	}
	if opts.Timeout <= 0 {
		return opts, fmt.Errorf("timeout must be positive, got %s", opts.Timeout)
	}
	switch opts.Output {
	case outputText, outputJSON:
	default:
		return opts, fmt.Errorf("unknown output format %q", opts.Output)
	}
	return opts, nil
}

// siteList reads a list of site ids. Flags split on commas already, but
// environment values only split on whitespace, so commas are split here too.
func siteList(v *viper.Viper, key string) []string {
	var ids []string
	for _, item := range v.GetStringSlice(key) {
		for _, id := range strings.Split(item, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// selection resolves the --site and --skip flags against the registry.
func (o options) selection(registry *sync.Registry) (sync.Selection, error) {
	ids := make([]sync.SiteID, len(o.Sites))
	for i, s := range o.Sites {
		ids[i] = sync.SiteID(s)
	}
	sel, err := registry.Select(ids...)
	if err != nil {
		return nil, err
	}
	for _, s := range o.Skip {
		if _, ok := registry.Lookup(sync.SiteID(s)); !ok {
			return nil, fmt.Errorf("unknown site %q", s)
		}
		sel.Disable(sync.SiteID(s))
	}
	return sel, nil
}
