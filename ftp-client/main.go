package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/AtDexters-Lab/nexus-ftp/internal/config"
	"github.com/AtDexters-Lab/nexus-ftp/internal/console"
	"github.com/AtDexters-Lab/nexus-ftp/internal/protocol"
	"github.com/AtDexters-Lab/nexus-ftp/internal/session"
	"github.com/AtDexters-Lab/nexus-ftp/internal/storage"
	"github.com/AtDexters-Lab/nexus-ftp/internal/transfer"
)

func main() {
	var serverIP string
	flag.StringVar(&serverIP, "i", "", "Server IP address.")
	flag.StringVar(&serverIP, "ip", "", "Server IP address.")
	configPath := flag.String("config", "", "Path to an optional YAML configuration file.")
	flag.Parse()

	if serverIP == "" {
		fmt.Fprintf(os.Stderr, "usage: %s -i <server ip>\n", os.Args[0])
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("FATAL: Error loading configuration: %v", err)
		}
	}

	store, err := storage.New(cfg.FilesDir)
	if err != nil {
		log.Fatalf("FATAL: Could not open files directory %s: %v", cfg.FilesDir, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := session.Dial(ctx, cfg, store, serverIP)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	defer client.Close()

	con, err := console.New(">>> ")
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	defer con.Close()
	log.SetOutput(con)

	client.SetProgress(func(p transfer.Progress) {
		if p.Done {
			return
		}
		percent := float64(100)
		if p.Total > 0 {
			percent = float64(p.Transferred) / float64(p.Total) * 100
		}
		con.Printf("%s %s: %.1f%% (%d/%d bytes)\n", p.Direction, p.Name, percent, p.Transferred, p.Total)
	}, 500*time.Millisecond)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	go interrupt(shutdownChan, con, cancel, os.Exit, client, con)

	con.Println("Enter a command: get / get <file> / send / send <file> / exit")
	run(ctx, con, client)
	if ctx.Err() != nil {
		// interrupt is closing up and owns the exit status.
		select {}
	}
}

// interrupt waits for a shutdown signal, closes every socket and the console
// so nothing is left half-open or in raw mode, and exits with status 130.
func interrupt(sig <-chan os.Signal, out io.Writer, cancel context.CancelFunc, exit func(int), closers ...io.Closer) {
	if _, ok := <-sig; !ok {
		return
	}
	fmt.Fprintln(out, "\nexit called.")
	cancel()
	for _, c := range closers {
		if err := c.Close(); err != nil {
			log.Printf("WARN: Error during shutdown: %v", err)
		}
	}
	exit(130)
}

func run(ctx context.Context, con *console.Console, client *session.Client) {
	for {
		line, err := con.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				con.Println("exit called.")
			} else {
				log.Printf("ERROR: Reading input: %v", err)
			}
			return
		}
		in, err := console.Parse(line, "get", "send", "exit")
		if err != nil {
			con.Println(">>> Invalid input, please enter valid cmd")
			continue
		}

		switch in.Verb {
		case "get":
			err = handleGet(ctx, con, client, in.Arg)
		case "send":
			err = handleSend(ctx, con, client, in.Arg)
		case "exit":
			con.Println("exit called.")
			return
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			con.Printf("Request failed: %v\n", err)
		}
	}
}

func handleGet(ctx context.Context, con *console.Console, client *session.Client, name string) error {
	var resp session.Response
	err := con.Cooked(func() (err error) {
		resp, err = client.Get(ctx, name)
		return err
	})
	if err != nil {
		return err
	}
	switch r := resp.(type) {
	case *session.ListResponse:
		con.Println(r.Raw)
	case *session.GetResponse:
		if r.Status == protocol.StatusNotFound {
			con.Println("File not found on server: ", r.Name)
			return nil
		}
		con.Printf("Fetched %s (%d bytes)\n", r.Name, r.Size)
	}
	return nil
}

func handleSend(ctx context.Context, con *console.Console, client *session.Client, name string) error {
	if name == "" {
		names, err := client.LocalFiles()
		if err != nil {
			return err
		}
		con.Println(strings.Join(names, protocol.ListSeparator))
		return nil
	}
	var resp *session.SendResponse
	err := con.Cooked(func() (err error) {
		resp, err = client.Send(ctx, name)
		return err
	})
	if err != nil {
		return err
	}
	if resp.Status == protocol.StatusNotFound {
		con.Println("File not found, cannot send: ", name)
		return nil
	}
	con.Printf("File sent to server (%d bytes)\n", resp.Size)
	return nil
}
