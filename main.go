package main

import "github.com/lukman83/buysmart/cmd"

func main() {
	cmd.Execute()
}
