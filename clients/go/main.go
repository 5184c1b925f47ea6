// Wally CLI - Command line client for wheres-wally
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/zachlamont/wheres-wally/clients/go/wally"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("WALLY_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	client := wally.NewClient(baseURL)
	cmd := os.Args[1]

	switch cmd {
	case "signup":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: wally signup <name> <password> [photo_url]")
			os.Exit(1)
		}
		photoURL := ""
		if len(os.Args) > 4 {
			photoURL = os.Args[4]
		}
		resp, err := client.SignUp(os.Args[2], os.Args[3], photoURL)
		exitOnError(err)
		fmt.Printf("Signed up as: %s (%s)\n", resp.Name, resp.ID)

	case "signin":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: wally signin <name> <password>")
			os.Exit(1)
		}
		resp, err := client.SignIn(os.Args[2], os.Args[3])
		exitOnError(err)
		fmt.Printf("Signed in as: %s\n", resp.Name)

	case "me":
		resp, err := client.Me()
		exitOnError(err)
		printJSON(resp)

	case "send":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: wally send <text>")
			os.Exit(1)
		}
		resp, err := client.PostMessage(os.Args[2])
		exitOnError(err)
		fmt.Printf("Sent: %s\n", resp.ID)

	case "sendimage":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: wally sendimage <path>")
			os.Exit(1)
		}
		path := os.Args[2]
		f, err := os.Open(path)
		exitOnError(err)
		defer f.Close()

		contentType := mime.TypeByExtension(filepath.Ext(path))
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		id, err := client.SendImage(ctx, f, filepath.Base(path), contentType)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Upload failed, placeholder %s left unresolved: %v\n", id, err)
			os.Exit(1)
		}
		fmt.Printf("Sent: %s\n", id)

	case "read":
		limit := 20
		if len(os.Args) > 2 {
			if n, err := strconv.Atoi(os.Args[2]); err == nil {
				limit = n
			}
		}
		resp, err := client.Messages(limit)
		exitOnError(err)
		for _, msg := range resp.Messages {
			ts := time.UnixMilli(msg.Timestamp).Format("2006-01-02 15:04:05")
			body := msg.Text
			if msg.IsImage() {
				body = "<image " + msg.ImageURL + ">"
			}
			fmt.Printf("[%s] %s: %s\n", ts, msg.Name, body)
		}

	case "watch":
		watch(client)

	case "delete":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: wally delete <message_id>")
			os.Exit(1)
		}
		exitOnError(client.DeleteMessage(os.Args[2]))
		fmt.Println("Deleted")

	case "find":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: wally find <query>")
			os.Exit(1)
		}
		resp, err := client.Search(os.Args[2], 20)
		exitOnError(err)
		for _, r := range resp.Results {
			fmt.Printf("[%s] %s\n", r.Name, r.Text)
		}

	case "characters":
		resp, err := client.Characters()
		exitOnError(err)
		for _, ch := range resp.Characters {
			mark := " "
			if ch.Found {
				mark = "x"
			}
			fmt.Printf("  [%s] %s\n", mark, ch.Name)
		}

	case "guess":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: wally guess <x> <y>   (coordinates in 0..1)")
			os.Exit(1)
		}
		x, err := strconv.ParseFloat(os.Args[2], 64)
		exitOnError(err)
		y, err := strconv.ParseFloat(os.Args[3], 64)
		exitOnError(err)
		resp, err := client.Guess(x, y)
		exitOnError(err)
		switch {
		case resp.Complete:
			fmt.Printf("Found %s - that's everyone!\n", resp.Character)
		case resp.Hit:
			fmt.Printf("Found %s!\n", resp.Character)
		default:
			fmt.Println("Nothing there, keep looking")
		}

	case "push-token":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: wally push-token <token>")
			os.Exit(1)
		}
		exitOnError(client.RegisterPushToken(os.Args[2]))
		fmt.Println("Token registered")

	case "stats":
		resp, err := client.Stats()
		exitOnError(err)
		fmt.Printf("Users: %d  Messages: %d  Characters: %d  Last activity: %s\n",
			resp.TotalUsers, resp.TotalMessages, resp.TotalCharacters, resp.LastActivity)
		for _, msg := range resp.RecentMessages {
			fmt.Printf("  %s: %s\n", msg.Name, msg.Text)
		}

	case "health":
		resp, err := client.Health()
		exitOnError(err)
		printJSON(resp)

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

// watch renders the live message list until interrupted.
func watch(client *wally.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batches, err := client.Subscribe(ctx)
	exitOnError(err)

	surface := &termSurface{}
	rec := wally.NewReconciler(surface)

	for batch := range batches {
		rec.Apply(batch)
		surface.Redraw()
	}

	if ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, "Feed closed by server")
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`Wally CLI - Where's Wally chat

Usage: wally <command> [options]

Commands:
  signup <name> <password>   Create an account
  signin <name> <password>   Sign in
  me                         Show the signed-in identity
  send <text>                Post a text message
  sendimage <path>           Post an image message
  read [limit]               Read recent messages
  watch                      Follow the live message list
  delete <message_id>        Delete one of your messages
  find <query>               Search messages
  characters                 List the hidden characters
  guess <x> <y>              Guess a character location (0..1)
  push-token <token>         Register a push notification token
  stats                      Show platform statistics
  health                     Check server health

Environment:
  WALLY_URL      Server URL (default: http://localhost:8080)
  WALLY_CONFIG   Config directory (default: ~/.wally)`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
