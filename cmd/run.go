package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/basellab/superblock-cli/internal/engine/geos"
	"github.com/basellab/superblock-cli/internal/pipeline"
	"github.com/basellab/superblock-cli/internal/policy"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the detection pipeline over the configured input layers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		pol, err := policy.Load(cfg.Policy.Path)
		if err != nil {
			return eris.Wrap(err, "load policy")
		}

		zap.L().Info("loading input layers")
		data, err := pipeline.LoadDatasets(ctx, cfg.Inputs)
		if err != nil {
			return err
		}

		p := pipeline.New(cfg, geos.New(), pol)
		result, err := p.Run(ctx, data)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("detection complete",
			zap.String("folder", result.Folder),
			zap.Int("components", result.Components),
			zap.Int("blocks", len(result.Blocks)),
		)

		type summary struct {
			Folder         string  `json:"folder"`
			BuildingSource string  `json:"building_source"`
			Components     int     `json:"components"`
			Anchors        int     `json:"anchors"`
			Blocks         int     `json:"blocks"`
			TopScore       float64 `json:"top_score,omitempty"`
			NetworkPath    string  `json:"network_path"`
			BlocksPath     string  `json:"blocks_path"`
		}
		out := summary{
			Folder:         result.Folder,
			BuildingSource: string(result.BuildingSource),
			Components:     result.Components,
			Anchors:        result.Anchors,
			Blocks:         len(result.Blocks),
			NetworkPath:    result.NetworkPath,
			BlocksPath:     result.BlocksPath,
		}
		if len(result.Blocks) > 0 {
			out.TopScore = result.Blocks[0].FinalScore
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
