package main

import "github.com/condorlabs/comprobantes/cmd"

func main() {
	cmd.Execute()
}
