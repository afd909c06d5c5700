// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/renameio/v2"
	"github.com/spf13/cobra"

	"github.com/ManuGH/backlot/internal/backlot"
	"github.com/ManuGH/backlot/internal/config"
	xglog "github.com/ManuGH/backlot/internal/log"
)

// ReqOptions holds flags for the req command.
type ReqOptions struct {
	*RootOptions
	Method    string
	Args      string
	APIKey    string
	SecretKey string
	BaseURL   string
	Out       string
}

// NewReqCommand performs one catalog call and prints its JSON result.
func NewReqCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReqOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "req",
		Short: "Make a signed catalog request",
		Long: `Make a signed catalog request and print the JSON result.

Credentials default to BACKLOT_API_KEY and BACKLOT_SECRET_KEY.

Example:
  backlot req -m getLabel -a '{"labelId":"abc"}'
  backlot req -a '{"path":"/v2/labels"}' --out labels.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReq(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Method, "method", "m", "makeRequest", `method name; see "backlot list"`)
	cmd.Flags().StringVarP(&opts.Args, "args", "a", "", "arguments object as a JSON string")
	cmd.Flags().StringVar(&opts.APIKey, "api-key", "", "API key (default $"+config.EnvAPIKey+")")
	cmd.Flags().StringVar(&opts.SecretKey, "secret-key", "", "secret key (default $"+config.EnvSecretKey+")")
	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "catalog base URL (default "+backlot.DefaultBaseURL+")")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "write the result to this file instead of stdout")
	_ = cmd.MarkFlagRequired("args")

	return cmd
}

func runReq(cmd *cobra.Command, opts *ReqOptions) error {
	m, ok := backlot.LookupMethod(opts.Method)
	if !ok {
		return fmt.Errorf("unknown method %q; run \"backlot list\"", opts.Method)
	}

	var args backlot.MethodArgs
	if err := json.Unmarshal([]byte(opts.Args), &args); err != nil {
		return fmt.Errorf("invalid --args JSON: %w", err)
	}

	cfg, err := opts.loadConfig(func(c *config.Config) {
		if opts.APIKey != "" {
			c.APIKey = opts.APIKey
		}
		if opts.SecretKey != "" {
			c.SecretKey = opts.SecretKey
		}
		if opts.BaseURL != "" {
			c.BaseURL = opts.BaseURL
		}
	})
	if err != nil {
		return err
	}

	client, err := newCatalogClient(cfg)
	if err != nil {
		return err
	}

	lg := xglog.WithComponent("cli")
	lg.Debug().
		Str("method", m.Name).
		Str(xglog.FieldBaseURL, client.BaseURL()).
		Msg("sending request")

	res, err := m.Call(cmd.Context(), client, args)
	if err != nil {
		return fmt.Errorf("%s: %w", m.Name, err)
	}

	body, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	body = append(body, '\n')

	if opts.Out == "" {
		_, err = cmd.OutOrStdout().Write(body)
		return err
	}
	return writeAtomic(opts.Out, body)
}

// writeAtomic replaces path with data via a synced temp file and rename.
func writeAtomic(path string, data []byte) error {
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
