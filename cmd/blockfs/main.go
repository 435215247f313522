package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/weberc2/blockfs/pkg/device"
	"github.com/weberc2/blockfs/pkg/filesys"
	. "github.com/weberc2/blockfs/pkg/types"
)

type FS = filesys.FileSystem

func main() {
	app := cli.App{
		Name:        "blockfs",
		Description: "inspect and manipulate block file system images",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name: "config",
				Usage: "The yaml config file to load. Defaults to " +
					"~/.config/blockfs.yaml.",
				Required: false,
			},
			&cli.StringFlag{
				Name: "image",
				Usage: "The image file to operate on. Overrides the " +
					"configured image.",
				Required: false,
			},
		},
		Commands: []*cli.Command{{
			Name:        "mkfs",
			Description: "format a fresh file system onto the backend",
			Action: func(ctx *cli.Context) error {
				c, err := LoadConfig(ctx)
				if err != nil {
					return err
				}
				if err := c.Validate(); err != nil {
					return err
				}
				if c.Backend == "s3" && c.S3Prefix == "" {
					// a remote volume needs a namespace; print it so the
					// volume can be mounted again
					c.S3Prefix = uuid.NewString()
					log.Printf("generated volume prefix `%s`", c.S3Prefix)
				}
				dev, err := c.openDevice(true)
				if err != nil {
					return err
				}
				defer closeDevice(dev)
				fs, err := filesys.Format(dev, c.CacheBlocks)
				if err != nil {
					return err
				}
				return fs.Close()
			},
		}, {
			Name:        "ls",
			Description: "list the files in the image",
			Action: withFS(func(fs *FS, ctx *cli.Context) error {
				names, err := fs.List()
				if err != nil {
					return err
				}
				for _, name := range names {
					if _, err := fmt.Println(name); err != nil {
						return fmt.Errorf("writing to stdout: %w", err)
					}
				}
				return nil
			}),
		}, {
			Name:        "put",
			Aliases:     []string{"add", "upload"},
			Description: "copy a local file into the image",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "path",
					Usage:    "The local file to copy in. Required.",
					Required: true,
				},
				&cli.StringFlag{
					Name: "name",
					Usage: "The name to store the file under. Defaults " +
						"to the basename of `path`.",
					Required: false,
				},
			},
			Action: withFS(func(fs *FS, ctx *cli.Context) error {
				path := ctx.String("path")
				name := ctx.String("name")
				if name == "" {
					name = filepath.Base(path)
				}

				src, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("opening `%s`: %w", path, err)
				}
				defer src.Close()

				if err := fs.Create(name, 0); err != nil {
					return err
				}
				f, err := fs.OpenFile(name)
				if err != nil {
					return err
				}
				if _, err := io.Copy(f, src); err != nil {
					f.Close()
					return fmt.Errorf("copying `%s` into image: %w", path, err)
				}
				return f.Close()
			}),
		}, {
			Name:        "cat",
			Description: "write a file's contents to stdout",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Usage:    "The file's name. Required.",
					Required: true,
				},
			},
			Action: withFS(func(fs *FS, ctx *cli.Context) error {
				name := ctx.String("name")
				f, err := fs.OpenFile(name)
				if err != nil {
					return err
				}
				if _, err := io.Copy(os.Stdout, f); err != nil {
					f.Close()
					return fmt.Errorf("writing `%s` to stdout: %w", name, err)
				}
				return f.Close()
			}),
		}, {
			Name:        "rm",
			Aliases:     []string{"remove", "delete"},
			Description: "remove a file from the image",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Usage:    "The file's name. Required.",
					Required: true,
				},
			},
			Action: withFS(func(fs *FS, ctx *cli.Context) error {
				return fs.Remove(ctx.String("name"))
			}),
		}, {
			Name:        "stat",
			Description: "print a file's metadata as JSON",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Usage:    "The file's name. Required.",
					Required: true,
				},
			},
			Action: withFS(func(fs *FS, ctx *cli.Context) error {
				name := ctx.String("name")
				f, err := fs.OpenFile(name)
				if err != nil {
					return err
				}
				defer f.Close()

				data, err := json.MarshalIndent(struct {
					Name   string `json:"name"`
					Sector Sector `json:"sector"`
					Length Byte   `json:"length"`
				}{
					Name:   name,
					Sector: f.Inode().Inumber(),
					Length: f.Length(),
				}, "", "  ")
				if err != nil {
					return fmt.Errorf("marshaling metadata to JSON: %w", err)
				}
				if _, err := fmt.Printf("%s\n", data); err != nil {
					return fmt.Errorf("writing JSON to stdout: %w", err)
				}
				return nil
			}),
		}, {
			Name:        "df",
			Description: "print sector usage as JSON",
			Action: withFS(func(fs *FS, ctx *cli.Context) error {
				total := fs.SectorCount()
				free := fs.FreeCount()
				data, err := json.MarshalIndent(struct {
					SectorSize Byte   `json:"sectorSize"`
					Sectors    Sector `json:"sectors"`
					Used       Sector `json:"used"`
					Free       Sector `json:"free"`
				}{
					SectorSize: SectorSize,
					Sectors:    total,
					Used:       total - free,
					Free:       free,
				}, "", "  ")
				if err != nil {
					return fmt.Errorf("marshaling usage to JSON: %w", err)
				}
				if _, err := fmt.Printf("%s\n", data); err != nil {
					return fmt.Errorf("writing JSON to stdout: %w", err)
				}
				return nil
			}),
		}, {
			Name:        "digest",
			Description: "print the blake2b-256 digest of a file",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Usage:    "The file's name. Required.",
					Required: true,
				},
			},
			Action: withFS(func(fs *FS, ctx *cli.Context) error {
				name := ctx.String("name")
				f, err := fs.OpenFile(name)
				if err != nil {
					return err
				}
				h, err := blake2b.New256(nil)
				if err != nil {
					f.Close()
					return fmt.Errorf("creating blake2b hash: %w", err)
				}
				if _, err := io.Copy(h, f); err != nil {
					f.Close()
					return fmt.Errorf("hashing `%s`: %w", name, err)
				}
				if err := f.Close(); err != nil {
					return err
				}
				if _, err := fmt.Printf(
					"%x  %s\n",
					h.Sum(nil),
					name,
				); err != nil {
					return fmt.Errorf("writing digest to stdout: %w", err)
				}
				return nil
			}),
		}},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func withFS(f func(*FS, *cli.Context) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		c, err := LoadConfig(ctx)
		if err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return err
		}
		dev, err := c.openDevice(false)
		if err != nil {
			return err
		}
		defer closeDevice(dev)
		fs, err := filesys.Open(dev, c.CacheBlocks)
		if err != nil {
			return err
		}
		if err := f(fs, ctx); err != nil {
			return err
		}
		return fs.Close()
	}
}

func closeDevice(dev device.Device) {
	if closer, ok := dev.(io.Closer); ok {
		closer.Close()
	}
}
