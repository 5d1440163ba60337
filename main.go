package main

import "github.com/KaramelBytes/demograph-cli/cmd"

func main() {
	cmd.Execute()
}
