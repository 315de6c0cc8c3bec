// Package config resolves the per-user processing configuration that tells
// each pipeline stage where its data lives.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-ini/ini"

	"github.com/banshee-data/lst-products/internal/fsutil"
)

const (
	// DefaultFilename is the processing configuration file name.
	DefaultFilename = "processing.conf"

	// HomeEnv names the environment variable holding the user's home directory.
	HomeEnv = "HOME"

	// Section is the INI section holding every processing key.
	Section = "processing"
)

// Keys read from the processing section.
const (
	KeyProcessCount       = "omp_num_threads"
	KeyDataPath           = "lst_data_path"
	KeyAuxPath            = "lst_aux_path"
	KeyModtranDataPath    = "modtran_data_path"
	KeyAsterGEDServerName = "aster_ged_server_name"
)

// configSubdir is the location of configuration files relative to $HOME.
var configSubdir = []string{".usgs", "espa"}

// ErrConfiguration is matched by every error returned from Resolve.
var ErrConfiguration = errors.New("configuration error")

// Error describes why the processing configuration could not be resolved.
type Error struct {
	Path   string // config file path, empty when HOME was unusable
	Key    string // offending key, if any
	Reason string
	Err    error // underlying cause, if any
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("config: ")
	b.WriteString(e.Reason)
	if e.Key != "" {
		fmt.Fprintf(&b, " [%s.%s]", Section, e.Key)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " in %s", e.Path)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports ErrConfiguration as a match for every configuration error.
func (e *Error) Is(target error) bool { return target == ErrConfiguration }

// Processing is the resolved run configuration. It is built once per run
// and is read-only afterwards.
type Processing struct {
	ProcessCount       int    // omp_num_threads, forwarded to MODTRAN as --process_count
	DataPath           string // lst_data_path
	AuxPath            string // lst_aux_path
	ModtranDataPath    string // modtran_data_path
	AsterGEDServerName string // aster_ged_server_name
}

// Resolver locates and parses the processing configuration.
type Resolver struct {
	FS        fsutil.FileSystem
	LookupEnv func(key string) (string, bool)
}

// NewResolver returns a Resolver backed by the real filesystem and environment.
func NewResolver() *Resolver {
	return &Resolver{
		FS:        fsutil.OSFileSystem{},
		LookupEnv: os.LookupEnv,
	}
}

// Resolve loads filename using the real filesystem and environment.
func Resolve(filename string) (*Processing, error) {
	return NewResolver().Resolve(filename)
}

// Path returns the full path of filename under $HOME/.usgs/espa.
func (r *Resolver) Path(filename string) (string, error) {
	home, ok := r.LookupEnv(HomeEnv)
	if !ok || strings.TrimSpace(home) == "" {
		return "", &Error{Reason: fmt.Sprintf("[%s] not found in environment", HomeEnv)}
	}
	parts := append([]string{home}, configSubdir...)
	parts = append(parts, filename)
	return filepath.Join(parts...), nil
}

// Resolve reads filename and extracts every processing key. A missing or
// empty key is always an error; there are no defaults. Paths are not
// checked for existence.
func (r *Resolver) Resolve(filename string) (*Processing, error) {
	path, err := r.Path(filename)
	if err != nil {
		return nil, err
	}

	if !fsutil.IsRegularFile(r.FS, path) {
		return nil, &Error{Path: path, Reason: "missing configuration file"}
	}

	data, err := r.FS.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Reason: "failed to read configuration file", Err: err}
	}

	// Option names are case-insensitive, matching how ESPA tools read this file.
	file, err := ini.LoadSources(ini.LoadOptions{InsensitiveKeys: true}, data)
	if err != nil {
		return nil, &Error{Path: path, Reason: "failed to parse configuration file", Err: err}
	}

	sec, err := file.GetSection(Section)
	if err != nil {
		return nil, &Error{Path: path, Reason: fmt.Sprintf("missing section [%s]", Section), Err: err}
	}

	get := func(key string) (string, error) {
		k, err := sec.GetKey(key)
		if err != nil {
			return "", &Error{Path: path, Key: key, Reason: "missing required key", Err: err}
		}
		v := strings.TrimSpace(k.String())
		if v == "" {
			return "", &Error{Path: path, Key: key, Reason: "empty value for required key"}
		}
		return v, nil
	}

	var cfg Processing

	rawCount, err := get(KeyProcessCount)
	if err != nil {
		return nil, err
	}
	cfg.ProcessCount, err = strconv.Atoi(rawCount)
	if err != nil {
		return nil, &Error{Path: path, Key: KeyProcessCount, Reason: "value must be an integer", Err: err}
	}
	if cfg.ProcessCount <= 0 {
		return nil, &Error{Path: path, Key: KeyProcessCount, Reason: fmt.Sprintf("value must be positive, got %d", cfg.ProcessCount)}
	}

	for _, f := range []struct {
		key string
		dst *string
	}{
		{KeyDataPath, &cfg.DataPath},
		{KeyAuxPath, &cfg.AuxPath},
		{KeyModtranDataPath, &cfg.ModtranDataPath},
		{KeyAsterGEDServerName, &cfg.AsterGEDServerName},
	} {
		v, err := get(f.key)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	return &cfg, nil
}
