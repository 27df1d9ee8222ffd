package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"
	"timeline/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

// inspect prints the most recent posts of a Badger store. The server must be
// stopped first, Badger holds an exclusive lock on its directory.
func main() {
	_ = godotenv.Load()
	defaultPath := os.Getenv("BADGER_FILEPATH")
	if defaultPath == "" {
		defaultPath = "timeline.db"
	}
	dbPath := flag.String("db", defaultPath, "Path to badger DB")
	limit := flag.Int("limit", 20, "Number of posts to print")
	flag.Parse()

	repository, err := repositories.OpenBadgerPostRepository(
		badger.DefaultOptions(*dbPath).WithLoggingLevel(badger.ERROR),
		slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
	)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer repository.Close()

	posts, err := repository.GetPosts(context.Background(), *limit)
	if err != nil {
		log.Fatal(err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Timestamp", "Author", "Content"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, p := range posts {
		table.Append([]string{
			strconv.FormatInt(p.ID, 10),
			p.Timestamp.Format(time.RFC3339),
			p.Author,
			p.Content,
		})
	}
	table.Render()

	if len(posts) == 0 {
		color.Yellow.Printf("No post found in %s\n", *dbPath)
		return
	}
	color.Green.Printf("%d most recent post(s) from %s\n", len(posts), *dbPath)
}
