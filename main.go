package main

import "github.com/theirongolddev/runway/cmd"

func main() {
	cmd.Execute()
}
