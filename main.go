package main

import (
	seqkontrol "github.com/padworks/seqkontrol/src"
)

func main() {
	seqkontrol.Run()
}
