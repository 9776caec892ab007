package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dargueta/fixedfs/geometry"
	"github.com/dargueta/fixedfs/internal/device"
	"github.com/dargueta/fixedfs/internal/engine"
)

func main() {
	app := cli.App{
		Usage: "Format and inspect fixed-layout filesystem images",
		Commands: []*cli.Command{
			{
				Name:      "format",
				Usage:     "Create a fresh image file and initialize the filesystem on it",
				Action:    formatImage,
				ArgsUsage: "PATH",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "profile",
						Usage: fmt.Sprintf("named device profile (%v)", geometry.Names()),
						Value: "standard-4mib",
					},
				},
			},
			{
				Name:      "info",
				Usage:     "Mount an existing image and print its layout",
				Action:    printInfo,
				ArgsUsage: "PATH",
				Flags: []cli.Flag{
					&cli.UintFlag{
						Name:  "io-unit-size",
						Usage: "device I/O unit size, in bytes",
						Value: 512,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func formatImage(context *cli.Context) error {
	path := context.Args().First()
	if path == "" {
		return cli.Exit("missing required argument PATH", 1)
	}

	profile, err := geometry.Get(context.String("profile"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if err := createZeroFilledFile(path, profile.TotalSizeBytes()); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	driver, err := device.OpenFileDriver(path, profile.IOUnitSize)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	sb, err := engine.Mount(driver)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	printLayout(path, sb)
	if err := sb.Unmount(); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

func printInfo(context *cli.Context) error {
	path := context.Args().First()
	if path == "" {
		return cli.Exit("missing required argument PATH", 1)
	}

	driver, err := device.OpenFileDriver(path, context.Uint("io-unit-size"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	sb, err := engine.Mount(driver)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	printLayout(path, sb)
	if err := sb.Unmount(); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

func printLayout(path string, sb *engine.Superblock) {
	fmt.Printf("%s: logical block size %d bytes\n", path, sb.BlockSize)
	fmt.Printf("  inode bitmap offset:  %d\n", sb.InodeBitmapOffset)
	fmt.Printf("  data bitmap offset:   %d\n", sb.DataBitmapOffset)
	fmt.Printf("  inode table offset:   %d (%d inodes)\n", sb.InodeTableOffset, sb.MaxInodes)
	fmt.Printf("  data region offset:   %d (%d blocks)\n", sb.DataRegionOffset, sb.MaxDataBlocks)
}

func createZeroFilledFile(path string, size int64) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return file.Truncate(size)
}
