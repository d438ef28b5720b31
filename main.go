package main

import "github.com/vibast-solutions/ms-go-dibs/cmd"

func main() {
	cmd.Execute()
}
