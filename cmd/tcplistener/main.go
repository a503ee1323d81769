package main

import (
	"flag"
	"fmt"
	"log"
	"net"

	"github.com/yanshuy/lambda-http/internal/request"
)

// Prints every request it receives and answers nothing.
func main() {
	addr := flag.String("addr", ":35000", "address to listen on")
	flag.Parse()

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatal("error listening:", err)
	}
	defer ln.Close()

	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Println("error accepting:", err)
			continue
		}
		log.Println("connection accept from", conn.RemoteAddr())
		dump(conn)
	}
}

func dump(conn net.Conn) {
	defer conn.Close()

	req, err := request.RequestFromReader(conn)
	if err != nil {
		log.Println(err)
		return
	}
	fmt.Println("Request line:")
	fmt.Println("- Method: " + req.Method)
	fmt.Println("- Target: " + req.Target)
	fmt.Println("- Version: " + req.HttpVersion)
	fmt.Println("Path: " + req.Path)
	fmt.Println("Query:")
	for key, val := range req.Query {
		fmt.Printf("- %s: %s\n", key, val)
	}
	fmt.Println("Headers:")
	for _, key := range req.Headers.Keys() {
		fmt.Printf("- %s: %s\n", key, req.Headers.Value(key))
	}
	fmt.Println("Body:")
	fmt.Println(string(req.Body))
}
