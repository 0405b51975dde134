package main

import "github.com/dimasprabowo/procurement-management/cmd"

func main() {
	cmd.Execute()
}
