package shout

import (
	"context"
	"encoding/json"
	"fmt"

	"go.followtheprocess.codes/msg"
	yaml "go.yaml.in/yaml/v4"

	"shout/internal/diagnose"
)

// CheckOptions are the options passed to the check subcommand.
type CheckOptions struct {
	// Config is the path to the config file, defaulting to shout.toml in
	// the current directory.
	Config string

	// Format selects the output format, one of text, json or yaml.
	Format string

	// Debug enables debug logging.
	Debug bool
}

// finding is one validation finding tagged with the config key it came
// from, in output friendly form.
type finding struct {
	Key     string `json:"key"     yaml:"key"`
	ID      string `json:"id"      yaml:"id"`
	Message string `json:"message" yaml:"message"`
	Hint    string `json:"hint"    yaml:"hint"`
}

// Check implements the check subcommand.
//
// It validates both suppression values in the config and reports every
// violation before returning, so a broken config is fixed in one pass
// rather than one error at a time.
func (s Shout) Check(ctx context.Context, options CheckOptions) error {
	logger := s.logger.WithPrefix("check")

	cfg, err := s.loadConfig(options.Config, logger)
	if err != nil {
		return err
	}

	var findings []finding

	for _, check := range diagnose.Validate(cfg.Silenced()) {
		findings = append(findings, finding{
			Key:     "silenced",
			ID:      check.ID,
			Message: check.Message,
			Hint:    check.Hint,
		})
	}

	for _, check := range diagnose.Validate(cfg.SilencedURLs()) {
		findings = append(findings, finding{
			Key:     "silenced-urls",
			ID:      check.ID,
			Message: check.Message,
			Hint:    check.Hint,
		})
	}

	logger.Debug("Validated config", "findings", len(findings))

	switch options.Format {
	case "", "text":
		if len(findings) == 0 {
			msg.Fsuccess(s.stdout, "config is valid")

			return nil
		}

		for _, f := range findings {
			msg.Ferror(s.stdout, "%s: [%s] %s", f.ID, f.Key, f.Message)
			msg.Finfo(s.stdout, "%s", f.Hint)
		}
	case "json":
		encoder := json.NewEncoder(s.stdout)
		encoder.SetIndent("", "  ")

		if err := encoder.Encode(findings); err != nil {
			return fmt.Errorf("could not encode findings: %w", err)
		}
	case "yaml":
		out, err := yaml.Marshal(findings)
		if err != nil {
			return fmt.Errorf("could not encode findings: %w", err)
		}

		fmt.Fprint(s.stdout, string(out))
	default:
		return fmt.Errorf("unsupported format: %s", options.Format)
	}

	if len(findings) > 0 {
		return fmt.Errorf("config has %d problem(s)", len(findings))
	}

	return nil
}
