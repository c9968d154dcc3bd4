package main

import (
	"github.com/sw33tLie/mailhunt/cmd"
)

func main() {
	cmd.Execute()
}
