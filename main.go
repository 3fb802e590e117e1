package main

import "site-indexer/cmd"

func main() {
	cmd.Execute()
}
