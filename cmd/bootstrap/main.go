package main

import (
	"log"

	"github.com/AMDmi3/rust-web-project-template/internal/cli"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("bootstrap: ")
	if err := cli.Execute(); err != nil {
		log.Fatal(err)
	}
}
