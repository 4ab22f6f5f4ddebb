package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/guimove/placefit/cmd"
)

func main() {
	cmd.Execute()
}
