package main

import "os"

func main() {
	if err := newRootCmd(defaultBackends()).Execute(); err != nil {
		os.Exit(1)
	}
}
