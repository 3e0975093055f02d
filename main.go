package main

import "github.com/mediascribe/mediascribe/cmd"

func main() {
	cmd.Execute()
}
