package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "housing-market",
		Usage: "Clear simulated housing and rental markets and ship the results to Kafka",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "specify the YAML config file (HOUSING_* variables override it)",
				EnvVars: []string{"HOUSING_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			simulateCmd,
			publishCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Println("Error: ", err)
		os.Exit(1)
	}
}
