package main

import "github.com/dbsmedya/relcheck/cmd/relcheck/cmd"

func main() {
	cmd.Execute()
}
