package main

import (
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/Warr10rOfOdin/dispatchwatch/internal/app"
	"github.com/Warr10rOfOdin/dispatchwatch/internal/config"
)

func main() {
	cmd := &cli.App{
		Name:  "dispatchwatch",
		Usage: "watch a dispatch portal document and alert on changes",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "source", Usage: "root document path or URL"},
			&cli.StringFlag{Name: "listen", Usage: "HTTP listen address"},
			&cli.StringFlag{Name: "db", Usage: "settings database path"},
			&cli.StringFlag{Name: "config", Usage: "config file path"},
			&cli.StringFlag{Name: "player", Usage: "sound player command"},
		},
		Action: run,
	}
	if err := cmd.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	// Flags feed the same environment keys config.Load reads, so precedence
	// stays flag > env > file > default.
	for flag, env := range map[string]string{
		"source": "SOURCE_URL",
		"listen": "LISTEN_ADDR",
		"db":     "DB_PATH",
		"config": "CONFIG_PATH",
		"player": "PLAYER_CMD",
	} {
		if v := c.String(flag); v != "" {
			os.Setenv(env, v)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.SourceURL == "" {
		return errors.New("a source document is required (--source or SOURCE_URL)")
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Run(ctx)
}
