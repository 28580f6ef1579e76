package main

import (
	"os"

	"persbench/internal/persbench"
)

func main() {
	os.Exit(persbench.Main())
}
