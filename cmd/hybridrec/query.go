package main

import (
	"strconv"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rushteam/hybridrec/engine"
)

var (
	topN  int
	alpha float64
)

var recommendCmd = &cobra.Command{
	Use:   "recommend <visitor-id>...",
	Short: "Print recommendations for visitors as JSON lines",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		_, e, err := loadEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		var opts []engine.RequestOption
		if cmd.Flags().Changed("top-n") {
			opts = append(opts, engine.TopN(topN))
		}
		if cmd.Flags().Changed("alpha") {
			opts = append(opts, engine.Alpha(alpha))
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		for _, id := range ids {
			res := e.Recommend(cmd.Context(), id, opts...)
			if err := enc.Encode(map[string]any{
				"visitor_id":      id,
				"status":          res.Segment.String(),
				"recommendations": res.Items,
			}); err != nil {
				return err
			}
		}
		return nil
	},
}

var segmentCmd = &cobra.Command{
	Use:   "segment <visitor-id>...",
	Short: "Print the segment of each visitor",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		_, e, err := loadEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		enc := json.NewEncoder(cmd.OutOrStdout())
		for _, id := range ids {
			if err := enc.Encode(map[string]any{
				"visitor_id": id,
				"segment":    e.Segment(cmd.Context(), id).String(),
			}); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	recommendCmd.Flags().IntVarP(&topN, "top-n", "n", engine.DefaultTopN, "number of items to return")
	recommendCmd.Flags().Float64VarP(&alpha, "alpha", "a", engine.DefaultAlpha, "ranker weight in the blend")
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
