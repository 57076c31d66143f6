package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/khushisara1/news-digest/internal/digest"
	"github.com/khushisara1/news-digest/internal/store"
	"github.com/spf13/cobra"
)

var (
	flagDigestName     string
	flagDigestCategory string
	flagDigestSearch   string
	flagFormat         string
	flagOut            string
	flagBrief          bool
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Create and export digests of saved items",
}

var digestCreateCmd = &cobra.Command{
	Use:   "create [item-id...]",
	Short: "Create a digest from saved items",
	Long: `Create a digest from the given saved item ids.

With no ids, every saved item matching --category and --search is included.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]int64, 0, len(args))
		for _, s := range args {
			id, err := parseID(s)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}

		a, err := setup(setupOpts{})
		if err != nil {
			return err
		}
		defer a.Close()

		var query string
		if len(ids) == 0 {
			items, err := a.store.ListItems(store.ListOpts{Category: flagDigestCategory, Search: flagDigestSearch})
			if err != nil {
				return err
			}
			for _, it := range items {
				ids = append(ids, it.ID)
			}
			query = digestQuery(flagDigestCategory, flagDigestSearch)
		}
		if len(ids) == 0 {
			return fmt.Errorf("no saved items to put in a digest")
		}

		d, err := a.store.CreateDigest(flagDigestName, query, ids)
		if err != nil {
			return fmt.Errorf("creating digest: %w", err)
		}
		fmt.Printf("Created digest %s (%q, %d items)\n", d.ID, d.Name, len(d.Items))
		return nil
	},
}

var digestListCmd = &cobra.Command{
	Use:   "list",
	Short: "List digests, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(setupOpts{})
		if err != nil {
			return err
		}
		defer a.Close()

		ds, err := a.store.ListDigests()
		if err != nil {
			return err
		}
		if len(ds) == 0 {
			fmt.Println("No digests yet.")
			return nil
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCREATED\tITEMS\tNAME")
		for _, d := range ds {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", d.ID, d.CreatedAt.Local().Format("2006-01-02 15:04"), d.Items, d.Name)
		}
		return tw.Flush()
	},
}

var digestExportCmd = &cobra.Command{
	Use:   "export <digest-id>",
	Short: "Export a digest as Markdown, JSON or HTML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := digest.FormatterFor(flagFormat); err != nil {
			return err
		}

		a, err := setup(setupOpts{feed: flagBrief})
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.store.GetDigest(args[0])
		if err != nil {
			return fmt.Errorf("loading digest %s: %w", args[0], err)
		}
		meta := digest.Generate(&d, digest.GenerateOpts{})
		if flagBrief {
			titles := make([]string, len(d.Items))
			for i, it := range d.Items {
				titles[i] = it.Title
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			meta.Brief = a.svc.Brief(ctx, titles)
			cancel()
		}

		if flagOut == "-" {
			f, _ := digest.FormatterFor(flagFormat)
			return f.Format(os.Stdout, &d)
		}
		path, err := digest.Export(&d, flagFormat, flagOut)
		if err != nil {
			return err
		}
		fmt.Printf("Exported %s\n", path)
		return nil
	},
}

var digestDeleteCmd = &cobra.Command{
	Use:   "delete <digest-id>",
	Short: "Delete a digest (saved items are kept)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(setupOpts{})
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.DeleteDigest(args[0]); err != nil {
			return fmt.Errorf("deleting digest %s: %w", args[0], err)
		}
		fmt.Println("Deleted digest.")
		return nil
	},
}

func init() {
	digestCreateCmd.Flags().StringVar(&flagDigestName, "name", "", "digest name (default: Digest <date>)")
	digestCreateCmd.Flags().StringVar(&flagDigestCategory, "category", "", "only items in this category")
	digestCreateCmd.Flags().StringVarP(&flagDigestSearch, "search", "q", "", "only items matching this text")

	digestExportCmd.Flags().StringVarP(&flagFormat, "format", "f", "md", "export format: "+strings.Join(digest.Formats(), ", "))
	digestExportCmd.Flags().StringVarP(&flagOut, "out", "o", "", "output file or directory (- for stdout)")
	digestExportCmd.Flags().BoolVar(&flagBrief, "brief", false, "add a generated overview paragraph")

	digestCmd.AddCommand(digestCreateCmd, digestListCmd, digestExportCmd, digestDeleteCmd)
}

// digestQuery records the filters a digest was built from.
func digestQuery(category, search string) string {
	var parts []string
	if category != "" {
		parts = append(parts, "category="+category)
	}
	if search != "" {
		parts = append(parts, "q="+search)
	}
	return strings.Join(parts, " ")
}
