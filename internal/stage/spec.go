// Package stage composes and runs the external programs that make up the
// LST pipeline. A Spec names a program and its arguments; the Invoker runs
// it and reports the outcome as a Result without ever returning a Go error.
package stage

import "strings"

// Arg is one required "--name value" pair.
type Arg struct {
	Name  string
	Value string
}

// Flag is an optional bare "--name" token, emitted only when Enabled.
type Flag struct {
	Name    string
	Enabled bool
}

// Spec describes one invocation of an external stage program.
type Spec struct {
	Program string
	Args    []Arg
	Flags   []Flag
}

// Argv returns the composed argument vector: the program, then every Arg
// in order, then every enabled Flag in order. Identical specs always give
// identical vectors.
func (s Spec) Argv() []string {
	argv := make([]string, 0, 1+2*len(s.Args)+len(s.Flags))
	argv = append(argv, s.Program)
	for _, a := range s.Args {
		argv = append(argv, "--"+a.Name, a.Value)
	}
	for _, f := range s.Flags {
		if f.Enabled {
			argv = append(argv, "--"+f.Name)
		}
	}
	return argv
}

// String joins Argv with spaces. It is used for logging only.
func (s Spec) String() string {
	return strings.Join(s.Argv(), " ")
}
