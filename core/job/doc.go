// Package job holds the settings of a sync job.
//
// A job names a source and a target endpoint, the key columns that match
// their rows, and the comparison options. Lists are comma-separated so they
// can be set from a single environment variable (SYNC_KEYS=tenant,id).
package job
