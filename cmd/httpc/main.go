// Command httpc sends one request to the webserver and prints the response.
//
//	httpc [-network tcp|unix] [-X METHOD] [-upload NAME] ADDR PATH
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nczempin/httpd-go-uring/client"
)

func main() {
	network := flag.String("network", "tcp", "tcp or unix")
	method := flag.String("X", "GET", "request method")
	upload := flag.String("upload", "", "POST a file creation request for NAME")
	flag.Parse()

	if flag.NArg() < 1 || (*upload == "" && flag.NArg() < 2) {
		fmt.Fprintf(os.Stderr, "usage: %s [-network tcp|unix] [-X METHOD] [-upload NAME] ADDR [PATH]\n", os.Args[0])
		os.Exit(2)
	}

	c := client.NewHttpClient(*network, flag.Arg(0))

	var (
		resp *client.Response
		err  error
	)
	if *upload != "" {
		resp, err = c.Upload(*upload)
	} else {
		resp, err = c.Do(&client.Request{Method: *method, Path: flag.Arg(1)})
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("%d %s\n", resp.StatusCode, resp.StatusMessage)
	for _, h := range resp.Headers {
		fmt.Printf("%s: %s\n", h.Key, h.Value)
	}
	fmt.Println()
	os.Stdout.Write(resp.Body)
}
