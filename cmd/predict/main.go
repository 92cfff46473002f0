// Package main scores a single flight record read from stdin and writes the
// prediction as JSON to stdout.
//
// Exit codes: 0 success, 2 invalid or missing input, 3 model missing or
// unloadable, 4 prediction failure.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/flightdelay/flightdelay/internal/features"
	"github.com/flightdelay/flightdelay/internal/model"
	"github.com/flightdelay/flightdelay/internal/prediction"
)

// Exit codes.
const (
	exitOK         = 0
	exitBadInput   = 2
	exitNoModel    = 3
	exitPrediction = 4
)

func main() {
	log := zerolog.New(os.Stderr).
		Level(zerolog.WarnLevel).
		With().
		Timestamp().
		Str("service", "flightdelay-predict").
		Logger()

	os.Exit(run(os.Stdin, os.Stdout, os.Getenv, log))
}

func run(stdin io.Reader, stdout io.Writer, getenv func(string) string, log zerolog.Logger) int {
	input, err := io.ReadAll(stdin)
	if err != nil {
		return fail(stdout, exitBadInput, fmt.Errorf("read input: %w", err))
	}
	if len(bytes.TrimSpace(input)) == 0 {
		return fail(stdout, exitBadInput, errors.New("no input provided"))
	}

	var rec features.FlightRecord
	if err := json.Unmarshal(input, &rec); err != nil {
		return fail(stdout, exitBadInput, err)
	}

	path := getenv("MODEL_PATH")
	if path == "" {
		path = model.DefaultPath
	}
	store := model.NewStore(model.StoreConfig{Path: path, Logger: log})
	if err := store.Load(); err != nil {
		return fail(stdout, exitNoModel, err)
	}

	svc := prediction.NewService(prediction.ServiceConfig{
		Models: store,
		Logger: log,
	})

	res, err := svc.PredictRecord(context.Background(), rec)
	switch {
	case err == nil:
	case errors.Is(err, features.ErrInvalidRecord):
		return fail(stdout, exitBadInput, err)
	case errors.Is(err, model.ErrModelUnavailable):
		return fail(stdout, exitNoModel, err)
	default:
		return fail(stdout, exitPrediction, err)
	}

	if err := json.NewEncoder(stdout).Encode(res); err != nil {
		log.Error().Err(err).Msg("failed to write result")
		return exitPrediction
	}
	return exitOK
}

// fail writes {"error": ...} and returns code.
func fail(stdout io.Writer, code int, err error) int {
	_ = json.NewEncoder(stdout).Encode(map[string]string{"error": err.Error()})
	return code
}
