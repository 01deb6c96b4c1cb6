package main

import "github.com/pixelfolio/cli/internal/cmd"

func main() {
	cmd.Execute()
}
