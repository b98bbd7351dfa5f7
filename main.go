package main

import "github.com/samsaffron/fencestream/cmd"

func main() {
	cmd.Execute()
}
