package main

import (
	"github.com/democratize-technology/open-food-facts/cmd/offtool/cmd"
)

func main() {
	cmd.Execute()
}
