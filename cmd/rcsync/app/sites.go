package app

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/homemade/rcsync/sync"
)

func newSitesCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "List the sites rcsync knows about",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profiles, err := sync.LoadProfiles(sync.BuiltinProfiles(), v.GetString("profiles"))
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Site", "Name", "Login", "Rcfile")
			for _, p := range profiles.Registry.Profiles() {
				reqs := p.Bind(sync.Credentials{Username: "USER"}, nil, profiles.GameVersion)
				if err := table.Append([]string{string(p.ID), p.Name, reqs.Login.URL, reqs.Fetch.URL}); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
}
