package main

import "github.com/Jhoorodre/seanime-provider/cmd"

func main() {
	cmd.Execute()
}
