package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/carbridge/cmd/carbridge/app"
)

func main() {
	app.NewApp().Run()
}
