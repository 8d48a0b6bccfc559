package main

import (
	"github.com/urfave/cli/v2"

	"github.com/panbanda/harnessprobe/pkg/models"
	"github.com/panbanda/harnessprobe/pkg/schema"
)

func schemaCmd() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON Schema of a mode's output",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Value:   string(models.ModeVariables),
				Usage:   "vars or funcs",
			},
		},
		Action: func(c *cli.Context) error {
			mode, err := models.ParseMode(c.String("mode"))
			if err != nil {
				return err
			}
			data, err := schema.Raw(mode)
			if err != nil {
				return err
			}
			_, err = c.App.Writer.Write(data)
			return err
		},
	}
}
