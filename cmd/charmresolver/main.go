package main

import "github.com/JakeFAU/charm-vin-resolver/cmd"

func main() {
	cmd.Execute()
}
