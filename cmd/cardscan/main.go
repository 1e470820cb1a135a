package main

import "github.com/cardfolio/cardscan/cmd/cardscan/cmd"

func main() {
	cmd.Execute()
}
