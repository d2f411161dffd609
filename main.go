package main

import "github.com/boviclouds/muzzle-id/cmd"

func main() {
	cmd.Execute()
}
