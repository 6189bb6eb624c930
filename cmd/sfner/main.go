package main

import "github.com/structflo/structflo-ner/internal/interfaces/cli"

func main() {
	cli.Execute()
}
