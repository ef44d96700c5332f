package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rushteam/shoprec/core"
)

var (
	queryTopN     int
	queryCategory string
)

var contentCmd = &cobra.Command{
	Use:   "content <product_id>",
	Short: "Recommend products similar to a given product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		productID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid product id %q", args[0])
		}

		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		topN := queryTopN
		if topN <= 0 {
			topN = a.cfg.Recommend.DefaultTopN
		}
		recs, err := a.engine.ByContent(cmd.Context(), productID, topN)
		if err != nil {
			return err
		}
		printRecs(recs)
		return nil
	},
}

var collabCmd = &cobra.Command{
	Use:   "collab <user_id>",
	Short: "Recommend products for a user from their rating history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[0])
		}

		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		topN := queryTopN
		if topN <= 0 {
			topN = a.cfg.Recommend.DefaultTopN
		}
		recs, err := a.engine.ByCollaboration(cmd.Context(), userID, topN, queryCategory)
		if err != nil {
			return err
		}
		printRecs(recs)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{contentCmd, collabCmd} {
		c.Flags().IntVar(&queryTopN, "top-n", 0, "number of recommendations (0 uses the configured default)")
	}
	collabCmd.Flags().StringVar(&queryCategory, "category", core.CategoryAll, "restrict candidates to one category")
}

func printRecs(recs []core.Recommendation) {
	if len(recs) == 0 {
		fmt.Println("no recommendations")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tSCORE")
	for _, r := range recs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%.2f\n", r.ProductID, r.Name, r.Category, r.Price, r.EstimatedScore)
	}
	w.Flush()
}
