package main

import "github.com/pfrederiksen/rl-predictor/internal/cli"

func main() {
	cli.Execute()
}
