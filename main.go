package main

import "hookchat/cmd"

func main() {
	cmd.Execute()
}
