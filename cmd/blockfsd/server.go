package main

import (
	"encoding/json"
	"errors"
	"io"

	pz "github.com/weberc2/httpeasy"

	"github.com/weberc2/blockfs/pkg/directory"
	"github.com/weberc2/blockfs/pkg/filesys"
)

// Server is a read-only HTTP gateway over a mounted file system. The
// packages underneath lock per structure, so handlers can run
// concurrently.
type Server struct {
	FileSystem *filesys.FileSystem
}

func (server *Server) List(r pz.Request) pz.Response {
	names, err := server.FileSystem.List()
	if err != nil {
		return pz.InternalServerError(e{err})
	}
	if names == nil {
		names = []string{}
	}
	return pz.Ok(pz.JSON(names))
}

func (server *Server) Get(r pz.Request) pz.Response {
	name := r.Vars["name"]
	f, err := server.FileSystem.OpenFile(name)
	if err != nil {
		if errors.Is(err, directory.NotFoundErr) {
			return pz.NotFound(
				pz.Stringf("file '%s' not found", name),
				struct {
					Message string
					File    string
				}{
					Message: "file not found",
					File:    name,
				},
			)
		}
		return pz.InternalServerError(e{err})
	}

	data, err := io.ReadAll(f)
	if err != nil {
		f.Close()
		return pz.InternalServerError(e{err})
	}
	if err := f.Close(); err != nil {
		return pz.InternalServerError(e{err})
	}
	return pz.Ok(pz.String(string(data)))
}

type e struct {
	err error
}

func (e e) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct{ Err string }{e.err.Error()})
}
