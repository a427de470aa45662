package main

import "github.com/derickschaefer/fauna/cmd"

func main() {
	cmd.Execute()
}
