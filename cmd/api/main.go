package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// @title School Food Safety Inspection API
// @version 1.0
// @description Inspection records, photo evidence and reports for government school kitchens
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app := &cli.App{
		Name:  "food-safety-api",
		Usage: "School food safety inspection portal backend",
		Commands: []*cli.Command{
			serveCommand,
			migrateCommand,
			seedUsersCommand,
			seedDemoCommand,
		},
		// no subcommand keeps the old behaviour of starting the server
		DefaultCommand: serveCommand.Name,
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("application failed")
	}
}
