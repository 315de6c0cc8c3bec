package pipeline

import (
	"context"
	"strconv"

	"github.com/banshee-data/lst-products/internal/config"
	"github.com/banshee-data/lst-products/internal/stage"
)

// Stage names, in execution order.
const (
	StageDetermineGridPoints        = "determine-grid-points"
	StageExtractAuxiliaryNARRData   = "extract-auxiliary-narr-data"
	StageBuildModtranInput          = "build-modtran-input"
	StageGenerateEmissivityProducts = "generate-emissivity-products"
	StageRunModtran                 = "run-modtran"
)

// External programs invoked by the command stages.
const (
	ProgramDetermineGridPoints      = "lst_determine_grid_points.py"
	ProgramExtractAuxiliaryNARRData = "lst_extract_auxiliary_narr_data.py"
	ProgramBuildModtranInput        = "lst_build_modtran_input.py"
	ProgramRunModtran               = "lst_run_modtran.py"
)

// Invoker runs one composed stage command. *stage.Invoker implements it.
type Invoker interface {
	Invoke(ctx context.Context, spec stage.Spec) stage.Result
}

// Stage is one step of the fixed pipeline.
type Stage interface {
	Name() string
	// Command returns the stage.Spec the stage runs, or false when the stage runs
	// no external program.
	Command() (stage.Spec, bool)
	Run(ctx context.Context, inv Invoker) stage.Result
}

// Params carries the run-level inputs every stage is built from.
type Params struct {
	XMLFilename              string
	Debug                    bool
	KeepIntermediateProducts bool // recorded only; no stage consumes it yet
	Config                   config.Processing
}

func (p Params) flags() []stage.Flag {
	return []stage.Flag{{Name: "debug", Enabled: p.Debug}}
}

// commandStage runs a single external program.
type commandStage struct {
	name string
	spec stage.Spec
}

func (s *commandStage) Name() string { return s.name }

func (s *commandStage) Command() (stage.Spec, bool) { return s.spec, true }

func (s *commandStage) Run(ctx context.Context, inv Invoker) stage.Result {
	return inv.Invoke(ctx, s.spec)
}

// emissivityStage is the emissivity product generation step. It is a
// known-incomplete placeholder: it runs nothing and always succeeds. The
// ASTER GED server name is carried so the eventual implementation has it.
type emissivityStage struct {
	serverName string
}

func (s *emissivityStage) Name() string { return StageGenerateEmissivityProducts }

func (s *emissivityStage) Command() (stage.Spec, bool) { return stage.Spec{}, false }

func (s *emissivityStage) Run(context.Context, Invoker) stage.Result {
	return stage.Success("")
}

// ServerName returns the ASTER GED server the stage will fetch from.
func (s *emissivityStage) ServerName() string { return s.serverName }

// Stages returns the fixed LST stage sequence for p. The debug flag is
// forwarded to every command stage.
func Stages(p Params) []Stage {
	return []Stage{
		&commandStage{
			name: StageDetermineGridPoints,
			spec: stage.Spec{
				Program: ProgramDetermineGridPoints,
				Args: []stage.Arg{
					{Name: "xml", Value: p.XMLFilename},
					{Name: "data_path", Value: p.Config.DataPath},
				},
				Flags: p.flags(),
			},
		},
		&commandStage{
			name: StageExtractAuxiliaryNARRData,
			spec: stage.Spec{
				Program: ProgramExtractAuxiliaryNARRData,
				Args: []stage.Arg{
					{Name: "xml", Value: p.XMLFilename},
					{Name: "lst_aux_path", Value: p.Config.AuxPath},
				},
				Flags: p.flags(),
			},
		},
		&commandStage{
			name: StageBuildModtranInput,
			spec: stage.Spec{
				Program: ProgramBuildModtranInput,
				Args: []stage.Arg{
					{Name: "xml", Value: p.XMLFilename},
					{Name: "data_path", Value: p.Config.DataPath},
				},
				Flags: p.flags(),
			},
		},
		&emissivityStage{serverName: p.Config.AsterGEDServerName},
		&commandStage{
			name: StageRunModtran,
			spec: stage.Spec{
				Program: ProgramRunModtran,
				Args: []stage.Arg{
					{Name: "modtran_data_path", Value: p.Config.ModtranDataPath},
					{Name: "process_count", Value: strconv.Itoa(p.Config.ProcessCount)},
				},
				Flags: p.flags(),
			},
		},
	}
}
