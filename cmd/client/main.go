package main

import "voicedrop/cmd/client/cmd"

func main() {
	cmd.Execute()
}
