package main

import "github.com/lexcodex/lsptree/app/cmd"

func main() {
	cmd.Execute()
}
