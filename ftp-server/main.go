package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/AtDexters-Lab/nexus-ftp/internal/config"
	"github.com/AtDexters-Lab/nexus-ftp/internal/console"
	"github.com/AtDexters-Lab/nexus-ftp/internal/protocol"
	"github.com/AtDexters-Lab/nexus-ftp/internal/session"
	"github.com/AtDexters-Lab/nexus-ftp/internal/storage"
)

const helpText = "type dir to list files, exit to shutdown server"

func main() {
	// --- 1. Configuration Loading ---
	configPath := flag.String("config", "", "Path to an optional YAML configuration file.")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("FATAL: Error loading configuration: %v", err)
		}
		log.Printf("INFO: Configuration loaded successfully from %s", *configPath)
	}

	// --- 2. Server Initialization ---
	store, err := storage.New(cfg.FilesDir)
	if err != nil {
		log.Fatalf("FATAL: Could not open files directory %s: %v", cfg.FilesDir, err)
	}
	log.Printf("INFO: Sharing files from %s", store.Root())

	srv := session.NewServer(cfg, store)
	if err := srv.Listen(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	con, err := console.New(">>> ")
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	defer con.Close()
	log.SetOutput(con)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Serve(ctx); err != nil {
			log.Printf("ERROR: Server stopped: %v", err)
		}
	}()

	// --- 3. Operator input and signals ---
	exitChan := make(chan struct{})
	go promptLoop(con, store, exitChan)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-shutdownChan:
		log.Println("INFO: Shutdown signal received.")
	case <-exitChan:
		log.Println("INFO: exit called.")
	}

	// --- 4. Cleanup ---
	srv.Stop()
	cancel()
	wg.Wait()

	log.Println("INFO: Shutdown complete. Goodbye.")
}

func promptLoop(con *console.Console, store *storage.Dir, exitChan chan<- struct{}) {
	defer close(exitChan)
	con.Println(helpText)
	for {
		line, err := con.ReadLine()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("ERROR: Reading input: %v", err)
			}
			return
		}
		in, err := console.Parse(line, "dir", "exit")
		if err != nil {
			con.Println(err)
			continue
		}
		switch in.Verb {
		case "dir":
			names, err := store.List()
			if err != nil {
				log.Printf("ERROR: %v", err)
				continue
			}
			con.Println(strings.Join(names, protocol.ListSeparator))
		case "exit":
			return
		}
	}
}
