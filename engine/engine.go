/*
Package engine wires the pattern-compression, ancestral-reconstruction
and optimiser-driver packages into the single inference run a command
line exposes: given a rooted input tree and a decoded alignment, it
renumbers the tree, filters and compresses the alignment, reconstructs
ancestral sequences, minimises one of the whole-tree objectives, and
hands back everything a result writer needs. Parsing the tree and
alignment from files, and formatting the result for output, are left
to the caller; this package only touches the already-decoded forms in
package tree and package align.
*/
package engine

import (
	"fmt"
	"math"

	"github.com/evolbioinfo/gorecomb/align"
	"github.com/evolbioinfo/gorecomb/ancestral"
	"github.com/evolbioinfo/gorecomb/hky85"
	"github.com/evolbioinfo/gorecomb/marginal"
	"github.com/evolbioinfo/gorecomb/nucleotide"
	"github.com/evolbioinfo/gorecomb/optimize"
	"github.com/evolbioinfo/gorecomb/recomb"
	"github.com/evolbioinfo/gorecomb/tree"
)

// Driver selects which whole-tree objective a Run call minimises. The
// other four drivers (PerBranchJoint, PerBranchRho, SingleRho,
// ApproxBranchLength) are not exposed through Run and are left to
// callers composing optimize package types directly; PerBranchRho and
// SingleRho take inputs a single inference run does not produce on its
// own (a crude branch length prior, a substitution count per branch).
type Driver int

const (
	// JointTreeDriver optimises R, L, delta and every branch length
	// jointly, scored by the product of per-branch Viterbi likelihoods.
	JointTreeDriver Driver = iota
	// FixedBranchDriver optimises only R, L, delta, holding every
	// branch length at the input tree's edge lengths.
	FixedBranchDriver
	// RescaleBranchDriver ignores recombination entirely and rescales
	// every branch length to its plain-Felsenstein maximum likelihood,
	// branch by branch, with no recombination parameters fitted.
	RescaleBranchDriver
)

// Config bundles the scalar inputs spec.md's external-interfaces
// section lists as collaborator-supplied configuration, plus the
// tree-numbering policy and the minimiser to run the chosen driver
// through.
type Config struct {
	Model                 hky85.Model
	Policy                marginal.OrderPolicy
	LabelOrder            map[string]int
	ExcessDivergenceModel bool
	MinBranchLength       float64
	PurgeSingletons       bool
	Driver                Driver
	Minimizer             optimize.Minimizer
	Progress              *optimize.Progress

	// Initial values for R/theta, mean import tract length and import
	// divergence, in their natural (not log10) units. Zero means use
	// the package defaults below.
	InitRhoOverTheta     float64
	InitMeanImportLength float64
	InitImportDivergence float64
}

const (
	defaultInitRhoOverTheta     = 0.01
	defaultInitMeanImportLength = 500.0
	defaultInitImportDivergence = 0.01
)

func (c Config) initRhoOverTheta() float64 {
	if c.InitRhoOverTheta > 0 {
		return c.InitRhoOverTheta
	}
	return defaultInitRhoOverTheta
}

func (c Config) initMeanImportLength() float64 {
	if c.InitMeanImportLength > 0 {
		return c.InitMeanImportLength
	}
	return defaultInitMeanImportLength
}

func (c Config) initImportDivergence() float64 {
	if c.InitImportDivergence > 0 {
		return c.InitImportDivergence
	}
	return defaultInitImportDivergence
}

// BranchResult is one non-penultimate branch's fitted output: its
// length (fitted under JointTreeDriver and RescaleBranchDriver, the
// input edge length under FixedBranchDriver)
// and, for the two recombination-aware drivers, its Viterbi-decoded
// importation path over the compatible-column sequence.
type BranchResult struct {
	NodeID       int
	BranchLength float64
	IsImported   []recomb.ImportationState
}

// Result is everything a write helper needs to emit the outputs
// spec.md's external-interfaces section names: the node_nuc matrix,
// the position cross-reference, and per-branch importation status.
type Result struct {
	MarginalTree *marginal.MarginalTree
	Table        align.PatternTable
	Compat       align.CompatibilityResult
	Columns      []align.CompatibleColumn
	NodeNuc      [][]nucleotide.Nucleotide

	RhoOverTheta     float64
	MeanImportLength float64
	ImportDivergence float64
	NegLogLikelihood float64

	Branches []BranchResult
}

// Run performs one complete inference pass: renumbering t, filtering
// and compressing a, reconstructing ancestral sequences, then fitting
// cfg.Driver's objective with cfg.Minimizer (gonum's Nelder-Mead via
// optimize.GonumMinimizer, unless cfg.Minimizer is set).
func Run(t *tree.Tree, a align.Alignment, cfg Config) (*Result, error) {
	mt, err := marginal.Build(t, cfg.Policy, cfg.LabelOrder)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	compat, err := align.ComputeCompatibility(a, mt, cfg.PurgeSingletons)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	table := align.Compress(a, compat)
	columns := align.CompatiblePositions(compat, table)

	anc, err := ancestral.Reconstruct(mt, cfg.Model, table)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	data := optimize.Data{
		Tree:                  mt,
		Model:                 cfg.Model,
		NodeNuc:               anc.NodeNuc,
		Table:                 table,
		Columns:               columns,
		ExcessDivergenceModel: cfg.ExcessDivergenceModel,
		MinBranchLength:       cfg.MinBranchLength,
	}

	minimizer := cfg.Minimizer
	if minimizer == nil {
		minimizer = optimize.GonumMinimizer{}
	}

	result := &Result{
		MarginalTree: mt,
		Table:        table,
		Compat:       compat,
		Columns:      columns,
		NodeNuc:      anc.NodeNuc,
	}

	switch cfg.Driver {
	case RescaleBranchDriver:
		return runRescaleBranch(data, minimizer, cfg, result)
	case FixedBranchDriver:
		return runFixedBranch(data, minimizer, cfg, result)
	default:
		return runJointTree(data, minimizer, cfg, result)
	}
}

func runJointTree(data optimize.Data, minimizer optimize.Minimizer, cfg Config, result *Result) (*Result, error) {
	driver := &optimize.JointTree{Data: data, Progress: cfg.Progress}
	x0 := make([]float64, data.NumTreeParams())
	x0[0] = math.Log10(cfg.initRhoOverTheta())
	x0[1] = math.Log10(cfg.initMeanImportLength())
	x0[2] = math.Log10(cfg.initImportDivergence())
	branches := optimize.NonPenultimateBranches(data.Tree)
	for _, i := range branches {
		b := data.Tree.Nodes[i].EdgeTime
		if b < data.MinBranchLength {
			b = data.EffectiveMinBranchLength()
		}
		x0[3+i] = math.Log10(b)
	}

	xOpt, fOpt, err := minimizer.Minimize(driver, x0)
	if err != nil {
		return nil, fmt.Errorf("engine: minimizing joint-tree objective: %w", err)
	}
	driver.Evaluate(xOpt) // repopulate driver.IsImported at the optimum

	result.RhoOverTheta = optimize.Pow10(xOpt[0])
	result.MeanImportLength = optimize.Pow10(xOpt[1])
	result.ImportDivergence = optimize.Pow10(xOpt[2])
	result.NegLogLikelihood = fOpt

	result.Branches = make([]BranchResult, 0, len(branches))
	for _, i := range branches {
		result.Branches = append(result.Branches, BranchResult{
			NodeID:       i,
			BranchLength: optimize.Pow10(xOpt[3+i]),
			IsImported:   driver.IsImported[i],
		})
	}
	return result, nil
}

func runFixedBranch(data optimize.Data, minimizer optimize.Minimizer, cfg Config, result *Result) (*Result, error) {
	driver := &optimize.FixedBranch{Data: data, Progress: cfg.Progress}
	x0 := []float64{
		math.Log10(cfg.initRhoOverTheta()),
		math.Log10(cfg.initMeanImportLength()),
		math.Log10(cfg.initImportDivergence()),
	}

	xOpt, fOpt, err := minimizer.Minimize(driver, x0)
	if err != nil {
		return nil, fmt.Errorf("engine: minimizing fixed-branch objective: %w", err)
	}
	driver.Evaluate(xOpt)

	result.RhoOverTheta = optimize.Pow10(xOpt[0])
	result.MeanImportLength = optimize.Pow10(xOpt[1])
	result.ImportDivergence = optimize.Pow10(xOpt[2])
	result.NegLogLikelihood = fOpt

	branches := optimize.NonPenultimateBranches(data.Tree)
	result.Branches = make([]BranchResult, 0, len(branches))
	for _, i := range branches {
		result.Branches = append(result.Branches, BranchResult{
			NodeID:       i,
			BranchLength: data.Tree.Nodes[i].EdgeTime,
			IsImported:   driver.IsImported[i],
		})
	}
	return result, nil
}

func runRescaleBranch(data optimize.Data, minimizer optimize.Minimizer, cfg Config, result *Result) (*Result, error) {
	branches := optimize.NonPenultimateBranches(data.Tree)
	result.Branches = make([]BranchResult, 0, len(branches))
	total := 0.0
	for _, i := range branches {
		node := data.Tree.Nodes[i]
		driver := &optimize.RescaleBranch{Data: data, NodeID: i, AncestorID: node.Ancestor, Progress: cfg.Progress}
		x0 := []float64{math.Log10(node.EdgeTime)}
		xOpt, fOpt, err := minimizer.Minimize(driver, x0)
		if err != nil {
			return nil, fmt.Errorf("engine: minimizing rescale-branch objective for node %d: %w", i, err)
		}
		total += fOpt
		result.Branches = append(result.Branches, BranchResult{
			NodeID:       i,
			BranchLength: optimize.Pow10(xOpt[0]),
		})
	}
	result.NegLogLikelihood = total
	return result, nil
}
