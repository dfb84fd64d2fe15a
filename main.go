package main

import "github.com/LeeJB-48/embreex4/cmd"

var version = "dev"

func main() {
	cmd.Execute(version)
}
