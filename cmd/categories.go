package cmd

import (
	"github.com/spf13/cobra"

	"github.com/JakeFAU/charm-vin-resolver/internal/resolver"
)

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "categories <dtc|labor|repair> <baseUrl>",
		Short:     "List the categories of a documentation section",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(resolver.SectionDTC), string(resolver.SectionLabor), string(resolver.SectionRepair)},
		RunE: func(cmd *cobra.Command, args []string) error {
			section, err := resolver.ParseSection(args[0])
			if err != nil {
				return err
			}
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			categories, err := appInstance.ListCategories(cmd.Context(), args[1], section)
			if err != nil {
				return err
			}
			if categories == nil {
				categories = []resolver.Category{}
			}
			return printJSON(cmd, map[string][]resolver.Category{"categories": categories})
		},
	}
}
