// wranglerctl is a thin client that dials a wrangler agent's local
// inspector endpoint and prints its status as a table.
//
// Usage:
//
//	wranglerctl [--addr host:port]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/ianremillard/wrangler/internal/proto"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:7780", "wrangler inspector address")
	flag.Parse()

	snap, err := fetchStatus(*addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wranglerctl: %v\n", err)
		os.Exit(1)
	}

	printSnapshot(snap)
}

func fetchStatus(addr string) (*proto.InspectorSnapshot, error) {
	resp, err := http.Get(fmt.Sprintf("http://%s/status", addr))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to wrangler: %w", err)
	}
	defer resp.Body.Close()

	var snap proto.InspectorSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &snap, nil
}

func printSnapshot(snap *proto.InspectorSnapshot) {
	fmt.Printf("status: %s", snap.Status)
	if snap.Error != "" {
		fmt.Printf("  (%s)", snap.Error)
	}
	fmt.Println()

	if len(snap.Processes) == 0 {
		fmt.Println("no shells")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "PID\tCWD\tSTATUS\tEXECUTING")
	for _, p := range snap.Processes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", p.PID, p.Cwd, p.Status, p.IfCommandExecuted)
	}
	w.Flush()
}
