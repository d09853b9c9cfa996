package main

import "github.com/aweris/relcache/cmd/relcache/cmd"

func main() {
	cmd.Execute()
}
