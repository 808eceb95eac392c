package main

import "github.com/adamgarcia4/goLearning/ndnagg/cmd"

func main() {
	cmd.Execute()
}
