// File: storefront-service/cmd/indexer/main.go
package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"storefront-service/internal/indexer"
)

func main() {
	cmd := &cli.Command{
		Name:  "indexer",
		Usage: "Rebuild the static catalog indexes from per-product JSON files",
		Commands: []*cli.Command{
			{
				Name:  "build",
				Usage: "Generate _index.json, path shards, search and category indexes",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "products",
						Usage: "Directory holding <slug>.json / <slug>.json.gz product files",
						Value: "./static/product",
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Output root; indexes are written under <out>/indexes",
						Value: "./static",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					b := &indexer.Builder{
						InputDir:  c.String("products"),
						OutputDir: c.String("out"),
					}
					if err := b.Build(); err != nil {
						return err
					}
					log.Println("INFO: index build complete")
					return nil
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
