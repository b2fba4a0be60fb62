package main

import "github.com/aouyang1/go-sarima-forecaster/cmd/sarima/cmd"

func main() {
	cmd.Execute()
}
