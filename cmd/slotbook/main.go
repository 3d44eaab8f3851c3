package main

import "slotbook/cmd/slotbook/cmd"

func main() {
	cmd.Execute()
}
