package main

import (
	"os"

	"github.com/gggutils/i2srun/lib/cli"
)

func main() {
	os.Exit(cli.Execute())
}
