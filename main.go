package main

import "github.com/Norgate-AV/pdmake/cmd"

func main() {
	cmd.Execute()
}
