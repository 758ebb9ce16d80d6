// Package cmd wires the qsctl command tree. Flag and environment overrides
// resolve in the root command's PersistentPreRunE; commands read shared state
// through the command context.
package cmd
