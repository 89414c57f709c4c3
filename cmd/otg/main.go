package main

import "github.com/OpenTraceLab/OpenTraceGPIO/cmd/otg/cmd"

func main() {
	cmd.Execute()
}
