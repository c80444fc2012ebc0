// Package cli implements the command-line interface for cska-ics.
//
// The cli package provides the Cobra-based root command. It builds the run
// configuration from defaults, an optional YAML file and explicitly set flags,
// captures the run's reference instant once, runs the pipeline and reports a
// short summary as text or JSON.
package cli
