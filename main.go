package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/golang/glog"
	"github.com/urfave/cli/v2"

	"github.com/AdamJauhari/Bedrock-Editor-sub000/editor"
)

func main() {
	app := &cli.App{
		Name:  "bedrockedit",
		Usage: "inspect and edit Minecraft Bedrock Edition level.dat files",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "verbosity",
				Usage: "log verbosity level",
			},
		},
		Before: func(c *cli.Context) error {
			// glog registers its flags on the standard flag set; parse it
			// empty and map our own verbosity flag onto it.
			flag.CommandLine.Parse(nil)
			if v := c.Int("verbosity"); v > 0 {
				flag.Set("v", fmt.Sprint(v))
				flag.Set("logtostderr", "true")
			}
			return nil
		},
		After: func(c *cli.Context) error {
			glog.Flush()
			return nil
		},
		Commands: []*cli.Command{
			showCommand(),
			getCommand(),
			setCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "bedrockedit:", err)
		os.Exit(1)
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "print the flattened field table of a level.dat",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "emit the table as JSON"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one file argument")
			}
			session, err := editor.Open(c.Args().First(), editor.Options{})
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return session.ExportJSON(os.Stdout)
			}
			w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			for _, row := range session.Rows() {
				indent := strings.Repeat("  ", row.Depth)
				fmt.Fprintf(w, "%s%s\t%s\t%s\n", indent, row.Path, row.Type, row.Display)
			}
			return w.Flush()
		},
	}
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "print one field's value",
		ArgsUsage: "<file> <path>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("expected a file and a field path")
			}
			session, err := editor.Open(c.Args().Get(0), editor.Options{})
			if err != nil {
				return err
			}
			path := c.Args().Get(1)
			rows := session.Rows()
			for _, row := range rows {
				if row.Path == path {
					fmt.Println(row.Display)
					return nil
				}
			}
			return fmt.Errorf("no field %q in %s", path, c.Args().Get(0))
		},
	}
}

func setCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "edit one or more fields and save",
		ArgsUsage: "<file> <path=value>...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "backup", Usage: "copy the prior file to <file>.backup first"},
			&cli.BoolFlag{Name: "rebuild", Usage: "regenerate the whole NBT body instead of patching bytes"},
			&cli.StringFlag{Name: "output", Usage: "write to this path instead of saving in place"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return fmt.Errorf("expected a file and at least one path=value")
			}
			opts := editor.Options{
				Backup:       c.Bool("backup"),
				ForceRebuild: c.Bool("rebuild"),
			}
			session, err := editor.Open(c.Args().First(), opts)
			if err != nil {
				return err
			}
			for _, arg := range c.Args().Slice()[1:] {
				path, value, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("malformed edit %q, want path=value", arg)
				}
				if err := session.Set(path, value); err != nil {
					return err
				}
			}
			if out := c.String("output"); out != "" {
				return session.SaveAs(out)
			}
			return session.Save()
		},
	}
}
