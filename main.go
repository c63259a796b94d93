package main

import "delta-apply/cmd"

func main() {
	cmd.Execute()
}
