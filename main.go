package main

import (
	"caltidy/cmd"
)

func main() {
	cmd.Execute()
}
