package pipeline

import (
	"context"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lst-products/internal/config"
)

var testConfig = config.Processing{
	ProcessCount:       8,
	DataPath:           "/data/lst",
	AuxPath:            "/data/narr",
	ModtranDataPath:    "/opt/modtran/DATA",
	AsterGEDServerName: "e4ftl01.cr.usgs.gov",
}

func testParams(debug bool) Params {
	return Params{
		XMLFilename: "LC80290302015170LGN00.xml",
		Debug:       debug,
		Config:      testConfig,
	}
}

func TestStages_Sequence(t *testing.T) {
	stages := Stages(testParams(false))

	var names []string
	for _, s := range stages {
		names = append(names, s.Name())
	}
	want := []string{
		StageDetermineGridPoints,
		StageExtractAuxiliaryNARRData,
		StageBuildModtranInput,
		StageGenerateEmissivityProducts,
		StageRunModtran,
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("stage order mismatch (-want +got):\n%s", diff)
	}
}

func TestStages_Commands(t *testing.T) {
	stages := Stages(testParams(false))

	want := map[string][]string{
		StageDetermineGridPoints: {
			"lst_determine_grid_points.py",
			"--xml", "LC80290302015170LGN00.xml",
			"--data_path", "/data/lst",
		},
		StageExtractAuxiliaryNARRData: {
			"lst_extract_auxiliary_narr_data.py",
			"--xml", "LC80290302015170LGN00.xml",
			"--lst_aux_path", "/data/narr",
		},
		StageBuildModtranInput: {
			"lst_build_modtran_input.py",
			"--xml", "LC80290302015170LGN00.xml",
			"--data_path", "/data/lst",
		},
		StageRunModtran: {
			"lst_run_modtran.py",
			"--modtran_data_path", "/opt/modtran/DATA",
			"--process_count", "8",
		},
	}

	for _, s := range stages {
		spec, ok := s.Command()
		if s.Name() == StageGenerateEmissivityProducts {
			assert.False(t, ok, "emissivity stage must not run a program")
			continue
		}
		require.True(t, ok, s.Name())
		if diff := cmp.Diff(want[s.Name()], spec.Argv()); diff != "" {
			t.Errorf("%s argv mismatch (-want +got):\n%s", s.Name(), diff)
		}
	}
}

func TestStages_DebugForwardedToEveryCommand(t *testing.T) {
	for _, debug := range []bool{true, false} {
		for _, s := range Stages(testParams(debug)) {
			spec, ok := s.Command()
			if !ok {
				continue
			}
			argv := spec.Argv()
			assert.Equal(t, debug, slices.Contains(argv, "--debug"), "%s debug=%v argv=%v", s.Name(), debug, argv)
			if debug {
				assert.Equal(t, "--debug", argv[len(argv)-1], "debug flag must follow required args")
			}
		}
	}
}

func TestStages_KeepIntermediateNotForwarded(t *testing.T) {
	p := testParams(false)
	p.KeepIntermediateProducts = true

	for _, s := range Stages(p) {
		spec, ok := s.Command()
		if !ok {
			continue
		}
		for _, tok := range spec.Argv() {
			assert.NotContains(t, tok, "keep")
		}
	}
}

func TestEmissivityStage_Placeholder(t *testing.T) {
	stages := Stages(testParams(true))
	s, ok := stages[3].(*emissivityStage)
	require.True(t, ok)

	inv := &recordingInvoker{}
	res := s.Run(context.Background(), inv)

	assert.True(t, res.Succeeded)
	assert.Empty(t, res.Output)
	assert.Empty(t, inv.specs, "placeholder must not invoke anything")
	assert.Equal(t, "e4ftl01.cr.usgs.gov", s.ServerName())
}
