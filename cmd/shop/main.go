package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/photocard-store/internal/cart"
	"github.com/angelmondragon/photocard-store/internal/client"
	"github.com/angelmondragon/photocard-store/pkg/env"
	"github.com/angelmondragon/photocard-store/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	apiURL := flag.String("api", env.Get("API_URL", client.DefaultBaseURL), "store API base URL")
	storagePath := flag.String("storage", env.Get("SHOP_STORAGE", ""), "path of the local cart/token file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: shop [flags] [command args...]\n\ncommands:\n")
		for _, u := range client.Usage() {
			fmt.Fprintf(flag.CommandLine.Output(), "  %s\n", u)
		}
		fmt.Fprintln(flag.CommandLine.Output(), "\nflags:")
		flag.PrintDefaults()
	}
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "shop", Format: "console", Output: os.Stderr})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	storage, err := openStorage(*storagePath)
	if err != nil {
		logg.Error(ctx, "failed to open local storage", err)
		os.Exit(1)
	}
	shop, err := client.NewShop(client.New(*apiURL), storage, os.Stdout)
	if err != nil {
		logg.Error(ctx, "failed to load cart", err)
		os.Exit(1)
	}

	if flag.NArg() > 0 {
		if err := shop.Run(ctx, flag.Args()); err != nil {
			report(err)
			os.Exit(1)
		}
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		args := strings.Fields(scanner.Text())
		switch {
		case len(args) == 0:
		case args[0] == "quit" || args[0] == "exit":
			return
		case args[0] == "help":
			flag.Usage()
		default:
			if err := shop.Run(ctx, args); err != nil {
				report(err)
			}
		}
		if ctx.Err() != nil {
			return
		}
		fmt.Print("> ")
	}
}

func openStorage(path string) (*cart.FileStorage, error) {
	if path != "" {
		return cart.NewFileStorage(path), nil
	}
	return cart.DefaultFileStorage()
}

func report(err error) {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintln(os.Stderr, apiErr.Message)
		return
	}
	fmt.Fprintln(os.Stderr, err)
}
