package main

import (
	"os"

	"github.com/golang/glog"

	"quizflow/internal/cli"
)

func main() {
	err := cli.Execute()
	glog.Flush()
	if err != nil {
		os.Exit(1)
	}
}
