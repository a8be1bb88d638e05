// Command inspect dumps discussion and account documents from a live store
// in read-only mode, for operators debugging membership or preview state.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"discussion-lab/domain"
	"discussion-lab/gateway"
	"discussion-lab/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "", "Path to badger DB")
	flag.Parse()
	if *dbPath == "" {
		log.Fatal("missing -db flag")
	}

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	store := gateway.NewBadgerStore(db, slog.Default())
	defer store.Close()

	color.Bold.Println("Discussions")
	if err = dumpDiscussions(db, store); err != nil {
		log.Fatal(err)
	}
	fmt.Println()
	color.Bold.Println("Accounts")
	if err = dumpAccounts(db, store); err != nil {
		log.Fatal(err)
	}
}

// openDB opens in read-only mode. BypassLockGuard allows opening while the
// engine process holds the directory lock.
func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)
	return badger.Open(opts)
}

func dumpDiscussions(db *badger.DB, store *gateway.BadgerStore) error {
	keys, err := scanKeys(db, repositories.DiscussionKeyPrefix)
	if err != nil {
		return err
	}
	table := newTable([]string{"ID", "Name", "Creator", "Participants", "Admins", "Messages", "Last At"})
	err = store.View(func(txn gateway.Txn) error {
		for _, key := range keys {
			var d domain.Discussion
			if err := txn.Get(key, &d); err != nil {
				return err
			}
			lastAt := ""
			if m, ok := d.LastMessage(); ok {
				lastAt = m.CreatedAt.Format(time.RFC822)
			}
			table.Append([]string{
				d.ID,
				d.Name,
				d.CreatorID,
				strings.Join(d.Participants, ","),
				strings.Join(d.Admins, ","),
				strconv.Itoa(len(d.Messages)),
				lastAt,
			})
		}
		return nil
	})
	if err != nil {
		return err
	}
	table.Render()
	return nil
}

func dumpAccounts(db *badger.DB, store *gateway.BadgerStore) error {
	keys, err := scanKeys(db, repositories.AccountKeyPrefix)
	if err != nil {
		return err
	}
	table := newTable([]string{"ID", "Display Name", "Handle", "Previews", "Unread Total"})
	err = store.View(func(txn gateway.Txn) error {
		for _, key := range keys {
			var a domain.Account
			if err := txn.Get(key, &a); err != nil {
				return err
			}
			unread := 0
			for _, p := range a.Previews {
				unread += p.UnreadCount
			}
			table.Append([]string{
				a.ID,
				a.DisplayName,
				a.Handle,
				strconv.Itoa(len(a.Previews)),
				strconv.Itoa(unread),
			})
		}
		return nil
	})
	if err != nil {
		return err
	}
	table.Render()
	return nil
}

func newTable(headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	return table
}

// scanKeys lists keys under a prefix. Values are fetched afterwards through
// the gateway so documents decode exactly as the engine reads them.
func scanKeys(db *badger.DB, prefix string) ([]string, error) {
	var keys []string
	err := db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()
		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return keys, err
}
