// Package main is the entry point of mpsd-mock.
package main

import (
	"log"

	"github.com/RPwnage/EA-Software-sub002/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
