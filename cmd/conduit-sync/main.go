package main

import "conduit-sync/cmd"

func main() {
	cmd.Execute()
}
