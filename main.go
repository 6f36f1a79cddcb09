package main

import "github.com/Rorical/RoriBuddy/cmd"

func main() {
	cmd.Execute()
}
