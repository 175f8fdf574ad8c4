package main

import "github.com/turbolytics/shop-extractor/internal/cmd"

func main() {
	cmd.Execute()
}
