//go:generate weaver generate ./...

package main

import (
	"context"
	"log"

	"gathering/pkg/api"

	"github.com/ServiceWeaver/weaver"
)

func main() {
	if err := weaver.Run(context.Background(), api.Serve); err != nil {
		log.Fatal(err)
	}
}
