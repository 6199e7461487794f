package main

import "bhmc/ggbridge/cmd"

func main() {
	cmd.Execute()
}
