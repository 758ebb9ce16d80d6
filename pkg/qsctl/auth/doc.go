// Package auth implements the local token delivery channel used by
// `qsctl auth login`: a short-lived loopback HTTP listener that receives a
// user token from the Qualiscan login page, raced against a manual-paste
// prompt and a deadline. The token itself is minted by the server; this
// package only carries it back to the CLI.
package auth
