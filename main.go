package main

import "github.com/KaramelBytes/campaign-etl/cmd"

func main() {
	cmd.Execute()
}
