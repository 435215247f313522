package main

import (
	"log"
	"net/http"
	"os"

	pz "github.com/weberc2/httpeasy"

	"github.com/weberc2/blockfs/pkg/cache"
	"github.com/weberc2/blockfs/pkg/device"
	"github.com/weberc2/blockfs/pkg/filesys"
)

func main() {
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}

	image := os.Getenv("IMAGE")
	if image == "" {
		log.Fatal("missing required env var: IMAGE")
	}

	dev, err := device.OpenFileDevice(image)
	if err != nil {
		log.Fatalf("opening image file: %v", err)
	}

	fs, err := filesys.Open(dev, cache.DefaultCapacity)
	if err != nil {
		log.Fatalf("mounting image: %v", err)
	}

	server := Server{FileSystem: fs}

	if err := http.ListenAndServe(addr, pz.Register(
		pz.JSONLog(os.Stderr),
		pz.Route{
			Method:  "GET",
			Path:    "/files",
			Handler: server.List,
		},
		pz.Route{
			Method:  "GET",
			Path:    "/files/{name}",
			Handler: server.Get,
		},
	)); err != nil {
		log.Fatal(err)
	}
}
