package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the categories a match can use",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result CategoryList

			if err := client.Get("/api/v1/categories", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match inspection commands",
	}

	cmd.AddCommand(newMatchGetCmd())

	return cmd
}

func newMatchGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <code>",
		Short: "Get a match snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := strings.ToUpper(args[0])

			var result Match

			if err := client.Get(fmt.Sprintf("/api/v1/matches/%s", url.PathEscape(code)), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newResultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Finished match history",
	}

	cmd.AddCommand(newResultsListCmd())

	return cmd
}

func newResultsListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent match results",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result ResultList

			if err := client.Get(fmt.Sprintf("/api/v1/results?limit=%d", limit), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of results")

	return cmd
}
