package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/desertthunder/emosense/internal/services"
	"github.com/desertthunder/emosense/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) writeResponse(resp *services.Response, pretty bool) error {
	var body any
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		r.writeBytes(resp.Body)
		return r.writePlain("\n")
	}
	return r.writeJSON(body, pretty)
}

func parseParams(pairs []string) (map[string]string, error) {
	params := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: param %q is not key=value", shared.ErrInvalidFlag, p)
		}
		params[k] = v
	}
	return params, nil
}

// APIGet makes a direct GET request with the session token
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	endpoint := cmd.StringArg("endpoint")
	if endpoint == "" {
		return fmt.Errorf("%w: endpoint", shared.ErrMissingArgument)
	}
	params, err := parseParams(cmd.StringSlice("param"))
	if err != nil {
		return err
	}
	if err := r.open(ctx); err != nil {
		return err
	}

	r.logger.Info("GET request", "endpoint", endpoint)

	resp, err := r.client.Get(ctx, endpoint, params)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, cmd.Bool("pretty"))
}

// APIPost makes a direct POST request with the session token
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	endpoint := cmd.StringArg("endpoint")
	data := cmd.String("data")
	if endpoint == "" {
		return fmt.Errorf("%w: endpoint", shared.ErrMissingArgument)
	}
	if !json.Valid([]byte(data)) {
		return fmt.Errorf("%w: data is not valid JSON", shared.ErrInvalidInput)
	}
	if err := r.open(ctx); err != nil {
		return err
	}

	r.logger.Info("POST request", "endpoint", endpoint)

	resp, err := r.client.Post(ctx, endpoint, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, true)
}
