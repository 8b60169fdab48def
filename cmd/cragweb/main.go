package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/aughey/crag-web/internal/handler"
	"github.com/aughey/crag-web/internal/request"
	"github.com/aughey/crag-web/internal/response"
	"github.com/aughey/crag-web/internal/server"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8010", "listen address")
	poolSize := flag.Int("pool", 4, "number of connection workers")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	srv, err := server.Build().
		Logger(log).
		Register(request.Get("/hello"), helloHandler).
		Register(request.Post("/echo"), echoHandler).
		RegisterErrorHandler(handler.NotFound).
		Finalize(*addr, *poolSize)
	if err != nil {
		log.Fatal().Err(err).Msg("building server")
	}
	defer srv.Close()

	go func() {
		if err := srv.Run(); err != nil {
			log.Fatal().Err(err).Msg("accept loop failed")
		}
	}()
	log.Info().Stringer("addr", srv.Addr()).Msg("server started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("server gracefully stopped")
}

func helloHandler(request.Request) (response.Response, error) {
	return response.Ok("Hello, Crag-Web!"), nil
}

func echoHandler(req request.Request) (response.Response, error) {
	return response.Ok(req.Body), nil
}
