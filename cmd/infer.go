// Copyright © 2016 NAME HERE <EMAIL ADDRESS>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/evolbioinfo/gorecomb/align"
	"github.com/evolbioinfo/gorecomb/engine"
	"github.com/evolbioinfo/gorecomb/hky85"
	"github.com/evolbioinfo/gorecomb/marginal"
	"github.com/evolbioinfo/gorecomb/nucleotide"
	"github.com/evolbioinfo/gorecomb/optimize"
	"github.com/evolbioinfo/gorecomb/tree"
)

var (
	inferTreeFile         string
	inferAlignFile        string
	inferOutPrefix        string
	inferKappa            float64
	inferExcessDivergence bool
	inferPurgeSingletons  bool
	inferMinBranchLength  float64
	inferDriver           string
)

// TreeReader parses a rooted input phylogeny from path. The default
// implementation refuses to run: Newick tokenizing and file I/O belong
// to an external parser, and a real build wires this variable to one
// (e.g. gotree's io/newick reader) before Execute is called.
var TreeReader func(path string) (*tree.Tree, error) = func(path string) (*tree.Tree, error) {
	return nil, fmt.Errorf("cmd: no TreeReader configured to read %q", path)
}

// AlignmentReader decodes a FASTA-like alignment from path, in tip
// order matching the tree TreeReader returns. Left unimplemented for
// the same reason as TreeReader.
var AlignmentReader func(path string, tipOrder []string) (align.Alignment, error) = func(path string, tipOrder []string) (align.Alignment, error) {
	return align.Alignment{}, fmt.Errorf("cmd: no AlignmentReader configured to read %q", path)
}

// ResultWriter emits an inference Result under outPrefix: reconstructed
// ancestor FASTA, the position cross-reference, and per-branch
// importation status. Output formatting is an external concern; the
// default implementation only reports summary statistics to the
// logger.
var ResultWriter func(outPrefix string, result *engine.Result) error = func(outPrefix string, result *engine.Result) error {
	log.Infow("inference complete",
		"rho_over_theta", result.RhoOverTheta,
		"mean_import_length", result.MeanImportLength,
		"import_divergence", result.ImportDivergence,
		"neg_log_likelihood", result.NegLogLikelihood,
		"branches", len(result.Branches),
	)
	return nil
}

var inferCmd = &cobra.Command{
	Use:   "infer",
	Short: "Infer recombination events along a fixed phylogeny",
	Long: `infer reconstructs ancestral sequences on a fixed, rooted phylogeny
and fits one of the whole-tree recombination objectives to the alignment,
reporting per-branch importation status and the fitted rho/theta, mean
import tract length and import divergence.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		log.Infow("starting inference", "tree", inferTreeFile, "alignment", inferAlignFile, "driver", inferDriver)

		t, err := TreeReader(inferTreeFile)
		if err != nil {
			return fmt.Errorf("cmd: %w", err)
		}
		tipOrder := t.SortedTips()
		a, err := AlignmentReader(inferAlignFile, tipOrder)
		if err != nil {
			return fmt.Errorf("cmd: %w", err)
		}
		labelOrder := make(map[string]int, len(tipOrder))
		for i, name := range tipOrder {
			labelOrder[name] = i
		}

		pi, err := nucleotide.EmpiricalFrequencies(a.Columns)
		if err != nil {
			return fmt.Errorf("cmd: %w", err)
		}

		driver, err := parseDriver(inferDriver)
		if err != nil {
			return err
		}

		cfg := engine.Config{
			Model:                 hky85.Model{Pi: pi, Kappa: inferKappa},
			Policy:                marginal.StatusLabelAndAge,
			LabelOrder:            labelOrder,
			ExcessDivergenceModel: inferExcessDivergence,
			MinBranchLength:       inferMinBranchLength,
			PurgeSingletons:       inferPurgeSingletons,
			Driver:                driver,
			Minimizer:             optimize.GonumMinimizer{},
			Progress:              optimize.NewProgress(inferDriver, rootQuiet),
		}

		result, err := engine.Run(t, a, cfg)
		if err != nil {
			return fmt.Errorf("cmd: %w", err)
		}
		if err := ResultWriter(inferOutPrefix, result); err != nil {
			return fmt.Errorf("cmd: writing results: %w", err)
		}

		log.Infow("inference finished", "elapsed", time.Since(start).String())
		return nil
	},
}

func parseDriver(name string) (engine.Driver, error) {
	switch name {
	case "", "joint-tree":
		return engine.JointTreeDriver, nil
	case "fixed-branch":
		return engine.FixedBranchDriver, nil
	case "rescale-branch":
		return engine.RescaleBranchDriver, nil
	default:
		return 0, fmt.Errorf("cmd: unknown driver %q (want joint-tree, fixed-branch or rescale-branch)", name)
	}
}

func init() {
	RootCmd.AddCommand(inferCmd)
	inferCmd.Flags().StringVar(&inferTreeFile, "tree", "", "input Newick tree file (required)")
	inferCmd.Flags().StringVar(&inferAlignFile, "alignment", "", "input FASTA alignment file (required)")
	inferCmd.Flags().StringVar(&inferOutPrefix, "out", "gorecomb", "output file prefix")
	inferCmd.Flags().Float64Var(&inferKappa, "kappa", 2.0, "transition/transversion rate ratio")
	inferCmd.Flags().BoolVar(&inferExcessDivergence, "excess-divergence-model", false, "measure import divergence in excess of the clonal branch length")
	inferCmd.Flags().BoolVar(&inferPurgeSingletons, "purge-singletons", false, "exclude singleton-allele columns from the compatibility filter")
	inferCmd.Flags().Float64Var(&inferMinBranchLength, "min-branch-length", 0, "minimum branch length (0 uses the HMM's divergence floor)")
	inferCmd.Flags().StringVar(&inferDriver, "driver", "joint-tree", "optimiser driver: joint-tree, fixed-branch or rescale-branch")
	inferCmd.MarkFlagRequired("tree")
	inferCmd.MarkFlagRequired("alignment")
}
