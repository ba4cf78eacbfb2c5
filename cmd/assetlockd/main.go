package main

import "github.com/LeJamon/goAssetLock/internal/cli"

func main() {
	cli.Execute()
}
