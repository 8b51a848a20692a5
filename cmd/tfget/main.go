package main

import (
	"github.com/cgolink/tfget/cmd/tfget/internal"
)

func main() {
	internal.Execute()
}
