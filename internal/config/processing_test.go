package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lst-products/internal/fsutil"
)

const testHome = "/home/espa"

const validProcessingConf = `
[processing]
omp_num_threads = 4
lst_data_path = /data/lst
lst_aux_path = /data/narr
modtran_data_path = /opt/modtran/DATA
aster_ged_server_name = e4ftl01.cr.usgs.gov
`

func newTestResolver(t *testing.T, env map[string]string, files map[string]string) *Resolver {
	t.Helper()
	mfs := fsutil.NewMemoryFileSystem()
	for name, body := range files {
		mfs.AddFile(name, []byte(body))
	}
	return &Resolver{
		FS: mfs,
		LookupEnv: func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		},
	}
}

func confPath() string {
	return testHome + "/.usgs/espa/" + DefaultFilename
}

func TestResolve_Valid(t *testing.T) {
	want := &Processing{
		ProcessCount:       4,
		DataPath:           "/data/lst",
		AuxPath:            "/data/narr",
		ModtranDataPath:    "/opt/modtran/DATA",
		AsterGEDServerName: "e4ftl01.cr.usgs.gov",
	}
	tests := []struct {
		name string
		body string
	}{
		{"lowercase keys", validProcessingConf},
		{"uppercase keys", `
[processing]
OMP_NUM_THREADS = 4
LST_DATA_PATH = /data/lst
LST_AUX_PATH = /data/narr
MODTRAN_DATA_PATH = /opt/modtran/DATA
ASTER_GED_SERVER_NAME = e4ftl01.cr.usgs.gov
`},
		{"mixed case keys", `
[processing]
Omp_Num_Threads = 4
lst_data_path = /data/lst
Lst_Aux_Path = /data/narr
modtran_data_path = /opt/modtran/DATA
aster_ged_server_name = e4ftl01.cr.usgs.gov
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(t,
				map[string]string{HomeEnv: testHome},
				map[string]string{confPath(): tt.body},
			)

			cfg, err := r.Resolve(DefaultFilename)
			require.NoError(t, err)
			assert.Equal(t, want, cfg)
		})
	}
}

func TestResolve_PathLayout(t *testing.T) {
	r := newTestResolver(t, map[string]string{HomeEnv: testHome}, nil)

	path, err := r.Path("other.conf")
	require.NoError(t, err)
	assert.Equal(t, "/home/espa/.usgs/espa/other.conf", path)
}

func TestResolve_HomeMissing(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unset", map[string]string{}},
		{"empty", map[string]string{HomeEnv: ""}},
		{"blank", map[string]string{HomeEnv: "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(t, tt.env, map[string]string{confPath(): validProcessingConf})

			_, err := r.Resolve(DefaultFilename)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfiguration)
			assert.Contains(t, err.Error(), "[HOME] not found in environment")
		})
	}
}

func TestResolve_FileMissing(t *testing.T) {
	r := newTestResolver(t, map[string]string{HomeEnv: testHome}, nil)

	_, err := r.Resolve(DefaultFilename)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)

	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, confPath(), cfgErr.Path)
	assert.Contains(t, err.Error(), "missing configuration file")
}

func TestResolve_FileIsDirectory(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	mfs.AddDir(confPath())
	r := &Resolver{FS: mfs, LookupEnv: func(string) (string, bool) { return testHome, true }}

	_, err := r.Resolve(DefaultFilename)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestResolve_MissingSection(t *testing.T) {
	r := newTestResolver(t,
		map[string]string{HomeEnv: testHome},
		map[string]string{confPath(): "[other]\nomp_num_threads = 4\n"},
	)

	_, err := r.Resolve(DefaultFilename)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "missing section [processing]")
}

func TestResolve_MissingEachKey(t *testing.T) {
	keys := []string{
		KeyProcessCount,
		KeyDataPath,
		KeyAuxPath,
		KeyModtranDataPath,
		KeyAsterGEDServerName,
	}
	for _, missing := range keys {
		t.Run(missing, func(t *testing.T) {
			var lines []string
			for _, line := range strings.Split(validProcessingConf, "\n") {
				if strings.HasPrefix(strings.TrimSpace(line), missing+" ") {
					continue
				}
				lines = append(lines, line)
			}
			r := newTestResolver(t,
				map[string]string{HomeEnv: testHome},
				map[string]string{confPath(): strings.Join(lines, "\n")},
			)

			_, err := r.Resolve(DefaultFilename)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfiguration)

			var cfgErr *Error
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, missing, cfgErr.Key)
			assert.Equal(t, "missing required key", cfgErr.Reason)
		})
	}
}

func TestResolve_EmptyValue(t *testing.T) {
	conf := strings.Replace(validProcessingConf, "lst_aux_path = /data/narr", "lst_aux_path =", 1)
	r := newTestResolver(t,
		map[string]string{HomeEnv: testHome},
		map[string]string{confPath(): conf},
	)

	_, err := r.Resolve(DefaultFilename)
	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, KeyAuxPath, cfgErr.Key)
	assert.Equal(t, "empty value for required key", cfgErr.Reason)
}

func TestResolve_ProcessCountValidation(t *testing.T) {
	tests := []struct {
		value  string
		reason string
	}{
		{"zero", "value must be an integer"},
		{"0", "value must be positive, got 0"},
		{"-2", "value must be positive, got -2"},
		{"2.5", "value must be an integer"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			conf := strings.Replace(validProcessingConf, "omp_num_threads = 4", "omp_num_threads = "+tt.value, 1)
			r := newTestResolver(t,
				map[string]string{HomeEnv: testHome},
				map[string]string{confPath(): conf},
			)

			_, err := r.Resolve(DefaultFilename)
			var cfgErr *Error
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, KeyProcessCount, cfgErr.Key)
			assert.Equal(t, tt.reason, cfgErr.Reason)
		})
	}
}

func TestResolve_DoesNotCheckPaths(t *testing.T) {
	// None of the configured directories exist in the memory filesystem.
	r := newTestResolver(t,
		map[string]string{HomeEnv: testHome},
		map[string]string{confPath(): validProcessingConf},
	)

	cfg, err := r.Resolve(DefaultFilename)
	require.NoError(t, err)
	assert.False(t, fsutil.IsRegularFile(r.FS, cfg.DataPath))
}

func TestResolve_OSDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnv, home)

	_, err := Resolve(DefaultFilename)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), home)
}
