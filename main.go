package main

import "bugsync/cmd"

func main() {
	cmd.Execute()
}
