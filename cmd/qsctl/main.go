package main

import (
	"os"

	qsctlcmd "github.com/qualiscan/qsctl/pkg/qsctl/cmd"
)

func main() {
	if err := qsctlcmd.Execute(); err != nil {
		os.Exit(1)
	}
}
