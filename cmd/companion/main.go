package main

import "clinicsync/cmd/companion/cmd"

func main() {
	cmd.Execute()
}
