package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/bookfeed-be/cmd"
)

func main() {
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("bookfeed failed")
		os.Exit(1)
	}
}
