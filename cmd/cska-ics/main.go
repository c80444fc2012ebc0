package main

import "github.com/cska-ics/cska-ics/internal/cli"

func main() {
	cli.Execute()
}
