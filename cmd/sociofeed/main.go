package main

import "github.com/aditya-makadiya/sociofeed/internal/cmd"

func main() {
	cmd.Execute()
}
