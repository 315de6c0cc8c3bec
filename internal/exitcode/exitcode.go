// Package exitcode defines the process exit statuses of lst-generate-products.
// Batch schedulers rely on these values; do not renumber them.
package exitcode

const (
	Success       = 0 // every stage completed
	StageFailure  = 1 // a stage failed, could not be started, or was interrupted
	Usage         = 2 // invalid command line
	InvalidConfig = 3 // processing configuration missing or invalid
)
