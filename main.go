package main

import "github.com/andresmejia3/emojify/cmd"

func main() {
	cmd.Execute()
}
