package main

import "github.com/LBIT2016/trading-gamers/internal/cli"

func main() {
	cli.Execute()
}
