// Command reqclient sends one request to a ZMTP REP endpoint and
// prints the reply.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Zereker/zmtp"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:42123", "REP endpoint address")
	message := flag.String("message", "Hello ZeroMQ", "request payload")
	flag.Parse()

	client, err := zmtp.Dial(*addr)
	if err != nil {
		slog.Error("dial failed", "addr", *addr, "error", err)
		os.Exit(1)
	}
	defer client.Close()

	reply, err := client.Do([]byte(*message))
	if err != nil {
		slog.Error("request failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", reply)
}
