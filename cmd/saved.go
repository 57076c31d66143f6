package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/khushisara1/news-digest/internal/digest"
	"github.com/khushisara1/news-digest/internal/store"
	"github.com/spf13/cobra"
)

var (
	flagCategory string
	flagSearch   string
)

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "Manage saved items",
}

var savedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved items, best rated first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(setupOpts{})
		if err != nil {
			return err
		}
		defer a.Close()

		items, err := a.store.ListItems(store.ListOpts{Category: flagCategory, Search: flagSearch})
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("Nothing saved yet.")
			return nil
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tRATING\tCATEGORY\tSOURCE\tTITLE")
		for _, it := range items {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", it.ID, digest.Stars(it.Rating), it.Category, it.Source, it.Title)
		}
		return tw.Flush()
	},
}

var savedRateCmd = &cobra.Command{
	Use:   "rate <id> <0-5>",
	Short: "Rate a saved item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		rating, err := strconv.Atoi(args[1])
		if err != nil || !digest.ValidRating(rating) {
			return store.ErrInvalidRating
		}

		a, err := setup(setupOpts{})
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.UpdateRating(id, rating); err != nil {
			return fmt.Errorf("rating item %d: %w", id, err)
		}
		fmt.Printf("Rated item %d %s\n", id, digest.Stars(rating))
		return nil
	},
}

var savedDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := setup(setupOpts{})
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.DeleteItem(id); err != nil {
			return fmt.Errorf("deleting item %d: %w", id, err)
		}
		fmt.Printf("Deleted item %d.\n", id)
		return nil
	},
}

func init() {
	savedListCmd.Flags().StringVar(&flagCategory, "category", "", "only items in this category")
	savedListCmd.Flags().StringVarP(&flagSearch, "search", "q", "", "match title, source or summary")
	savedCmd.AddCommand(savedListCmd, savedRateCmd, savedDeleteCmd)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", s)
	}
	return id, nil
}
