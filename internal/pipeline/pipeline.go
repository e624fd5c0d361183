// Package pipeline sequences the detection phases: input preparation,
// network segmentation, block extraction and scoring. The orchestrator is
// stateless; each phase consumes the previous phase's outputs as read-only
// inputs and runs to completion before the next one starts.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/basellab/superblock-cli/internal/block"
	"github.com/basellab/superblock-cli/internal/config"
	"github.com/basellab/superblock-cli/internal/engine"
	"github.com/basellab/superblock-cli/internal/layer"
	"github.com/basellab/superblock-cli/internal/model"
	"github.com/basellab/superblock-cli/internal/policy"
	"github.com/basellab/superblock-cli/internal/scoring"
	"github.com/basellab/superblock-cli/internal/segment"
)

// maxRunFolders bounds the search for a free run folder name.
const maxRunFolders = 1000

// Pipeline runs the full detection sequence.
type Pipeline struct {
	cfg *config.Config
	eng engine.Engine
	pol *policy.Policy
}

// New creates a pipeline.
func New(cfg *config.Config, eng engine.Engine, pol *policy.Policy) *Pipeline {
	return &Pipeline{cfg: cfg, eng: eng, pol: pol}
}

// Datasets holds the seven loaded input layers.
type Datasets struct {
	Network   *layer.Dataset
	Transit   *layer.Dataset
	Bike      *layer.Dataset
	Exception *layer.Dataset
	Lifeline  *layer.Dataset
	Buildings *layer.Dataset
	Parcels   *layer.Dataset
}

// LoadDatasets reads all input layers concurrently. The phases themselves
// stay strictly sequential; only file loading is parallel.
func LoadDatasets(ctx context.Context, in config.InputsConfig) (*Datasets, error) {
	var ds Datasets
	inputs := []struct {
		name string
		path string
		dst  **layer.Dataset
	}{
		{"network", in.Network, &ds.Network},
		{"transit", in.Transit, &ds.Transit},
		{"bike", in.Bike, &ds.Bike},
		{"exception", in.Exception, &ds.Exception},
		{"lifeline", in.Lifeline, &ds.Lifeline},
		{"buildings", in.Buildings, &ds.Buildings},
		{"parcels", in.Parcels, &ds.Parcels},
	}

	// Validate every path up front so a bad configuration never launches
	// loader goroutines that outlive this call.
	for _, in := range inputs {
		if in.path == "" {
			return nil, eris.Errorf("pipeline: missing input path for %s layer", in.name)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, in := range inputs {
		in := in
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d, err := layer.Read(in.path)
			if err != nil {
				return eris.Wrapf(err, "pipeline: load %s layer", in.name)
			}
			*in.dst = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// RunResult summarizes a completed run.
type RunResult struct {
	Folder         string
	LogPath        string
	BuildingSource model.BuildingSource
	Components     int
	Anchors        int
	Blocks         []model.CandidateBlock
	NetworkPath    string
	BlocksPath     string
}

// Run executes the full pipeline over loaded datasets. Schema problems fail
// before any phase runs; on a fatal error the run folder and everything in
// it is removed. Empty phase results propagate as valid empty outputs.
func (p *Pipeline) Run(ctx context.Context, data *Datasets) (res *RunResult, err error) {
	weights, err := model.WeightPreset(p.cfg.Scoring.WeightPreset)
	if err != nil {
		return nil, err
	}

	// Fail fast on schema problems before touching the output directory.
	if err := layer.RequireField(data.Network, p.cfg.Network.HierarchyField); err != nil {
		return nil, err
	}
	buildings, src, err := layer.PrepareBuildings(data.Buildings, p.pol)
	if err != nil {
		return nil, err
	}

	folder, err := createRunFolder(p.cfg.Output.Dir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(folder)
		}
	}()

	logPath := filepath.Join(folder, "process.log")
	runLog, closeLog, err := newRunLog(logPath)
	if err != nil {
		return nil, err
	}
	defer closeLog()

	runLog.Info("run started",
		zap.String("folder", folder),
		zap.String("weight_preset", p.cfg.Scoring.WeightPreset),
		zap.String("building_source", string(src)),
	)

	// Phase 1: preparation. Qualifying buildings are persisted for audit.
	preparedPath := filepath.Join(folder, "prepared", "buildings_prepared.gpkg")
	if err = layer.WriteBuildings(preparedPath, buildings); err != nil {
		return nil, &model.ResourceError{Path: preparedPath, Err: err}
	}
	runLog.Info("phase 1 complete",
		zap.Int("buildings_in", len(data.Buildings.Features)),
		zap.Int("buildings_qualifying", len(buildings)),
	)

	// Phase 2: network segmentation.
	runLog.Info("phase 2 started", zap.Int("network_features", len(data.Network.Features)))
	seg, err := segment.Run(ctx, p.eng, p.pol, p.cfg.Network, segment.Inputs{
		Network:   layer.Lines(data.Network, p.cfg.Network.HierarchyField),
		Transit:   layer.Lines(data.Transit, ""),
		Bike:      layer.Lines(data.Bike, ""),
		Exception: layer.Lines(data.Exception, ""),
		Lifeline:  layer.Lines(data.Lifeline, ""),
	})
	if err != nil {
		return nil, err
	}
	if len(seg.Components) == 0 {
		runLog.Warn("phase 2 produced an empty cleaned network")
	}
	runLog.Info("phase 2 complete",
		zap.Int("components", len(seg.Components)),
		zap.Int("anchors", len(seg.Anchors)),
	)

	networkPath := filepath.Join(folder, "final", "network_cleaned.gpkg")
	if err = layer.WriteNetwork(networkPath, seg.Components); err != nil {
		return nil, &model.ResourceError{Path: networkPath, Err: err}
	}
	anchorsPath := filepath.Join(folder, "temp", "anchors.gpkg")
	if err = layer.WriteAnchors(anchorsPath, seg.Anchors); err != nil {
		return nil, &model.ResourceError{Path: anchorsPath, Err: err}
	}

	// Phase 3: block extraction.
	parcels := layer.Parcels(data.Parcels)
	runLog.Info("phase 3 started", zap.Int("parcels", len(parcels)))
	blocks, err := block.Extract(ctx, p.eng, p.cfg.Blocks, seg, parcels, buildings)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		runLog.Warn("phase 3 produced zero candidate blocks")
	}
	runLog.Info("phase 3 complete", zap.Int("blocks", len(blocks)))

	// Phase 4: scoring.
	runLog.Info("phase 4 started",
		zap.Float64("building_weight", weights.Building),
		zap.Float64("ratio_weight", weights.Ratio),
	)
	scored, err := scoring.Score(p.eng, blocks, weights, scoring.Options{
		Compactness: p.cfg.Scoring.Compactness,
	})
	if err != nil {
		return nil, err
	}
	runLog.Info("phase 4 complete", zap.Int("blocks", len(scored)))

	blocksPath := filepath.Join(folder, "final", "blocks_scored.gpkg")
	if err = layer.WriteBlocks(blocksPath, scored); err != nil {
		return nil, &model.ResourceError{Path: blocksPath, Err: err}
	}

	runLog.Info("run finished",
		zap.Int("components", len(seg.Components)),
		zap.Int("blocks", len(scored)),
	)

	return &RunResult{
		Folder:         folder,
		LogPath:        logPath,
		BuildingSource: src,
		Components:     len(seg.Components),
		Anchors:        len(seg.Anchors),
		Blocks:         scored,
		NetworkPath:    networkPath,
		BlocksPath:     blocksPath,
	}, nil
}

// createRunFolder makes a unique run folder with prepared/, temp/ and
// final/ subfolders under the output directory.
func createRunFolder(base string) (string, error) {
	info, err := os.Stat(base)
	if err != nil || !info.IsDir() {
		return "", &model.ResourceError{Path: base, Err: eris.New("output directory does not exist")}
	}

	for i := 1; i <= maxRunFolders; i++ {
		folder := filepath.Join(base, fmt.Sprintf("superblock_run_%d", i))
		if _, statErr := os.Stat(folder); statErr == nil {
			continue
		}
		for _, sub := range []string{"prepared", "temp", "final"} {
			if mkErr := os.MkdirAll(filepath.Join(folder, sub), 0o755); mkErr != nil {
				return "", &model.ResourceError{Path: folder, Err: mkErr}
			}
		}
		return folder, nil
	}
	return "", &model.ResourceError{Path: base, Err: eris.Errorf("no free run folder after %d attempts", maxRunFolders)}
}
