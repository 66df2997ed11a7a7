package main

import (
	rootcmd "github.com/eumel8/mlab-ns/cmd"
	"github.com/eumel8/mlab-ns/nscmd"
)

func main() {
	rootcmd.Run(&nscmd.NSCmd{}, "mlabns", "Server selection for M-Lab measurement tools",
		"/etc/mlabns/mlabns.yaml", "~/.mlabns.yaml",
	)
}
