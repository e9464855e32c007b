package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"retryengine/cmd/seed"
	"retryengine/src/database"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "Retry Engine CMD"
	app.Usage = "The payment retry engine command line interface"

	app.Commands = []cli.Command{
		seedCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var seedCMD = cli.Command{
	Name:        "seed",
	Usage:       "seed the database with demo data",
	Action:      seedAction,
	ArgsUsage:   "",
	Flags:       []cli.Flag{},
	Description: `Create the demo merchant, its retry configuration and sample failed payments`,
}

func seedAction(_ *cli.Context) error {
	logrus.Info("Starting seed CMD")

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Failed to connect to database")
		return err
	}

	if err := seed.Run(database.MainDB); err != nil {
		logrus.WithError(err).Error("Seeding failed")
		return err
	}

	return nil
}
