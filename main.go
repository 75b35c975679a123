package main

import "pr-dashboard/cmd"

func main() {
	cmd.Execute()
}
