package main

import "github.com/wkalt/robocodec/cmd"

func main() {
	cmd.Execute()
}
