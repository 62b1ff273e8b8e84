// Package cli implements the projis-dump command line interface.
package cli
