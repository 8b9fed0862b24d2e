// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"crmstack/internal/config"
	"crmstack/internal/database"
	"crmstack/internal/logger"
	"crmstack/internal/project"
	"crmstack/internal/util"
)

// WaitForRemoteDatabase polls `pg_isready` inside the db container of a
// remote environment until it reports acceptance or ctx expires. The direct
// pgx probe only works for the local environment; on remotes the database
// port is usually not reachable from the workstation, so the check runs
// inside the container instead.
func WaitForRemoteDatabase(ctx context.Context, env project.Environment, cfg config.Config, interval time.Duration) error {
	if !env.IsRemote {
		return fmt.Errorf("internal error: WaitForRemoteDatabase called for local environment")
	}
	if sshManager == nil {
		return fmt.Errorf("ssh manager not initialized for database probe on %s", env.Name)
	}
	if interval <= 0 {
		interval = time.Second
	}

	params, err := database.Parse(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("cannot derive pg_isready parameters: %w", err)
	}

	probeParts := []string{"cd", util.QuoteArgForShell(env.Root), "&&", cfg.Engine}
	for _, arg := range []string{"compose", "exec", "-T", cfg.DBService, "pg_isready", "-U", params.User} {
		probeParts = append(probeParts, util.QuoteArgForShell(arg))
	}
	probeCmd := strings.Join(probeParts, " ")

	var lastErr error
	attempt := 0
	for {
		attempt++

		client, clientErr := sshManager.GetClient(*env.Remote)
		if clientErr != nil {
			lastErr = clientErr
		} else if session, sessionErr := client.NewSession(); sessionErr != nil {
			lastErr = sessionErr
		} else {
			output, runErr := session.CombinedOutput(probeCmd)
			_ = session.Close()
			if runErr == nil {
				logger.Info("Remote database is ready", "env", env.Name, "attempts", attempt)
				return nil
			}
			lastErr = fmt.Errorf("%w (output: %s)", runErr, strings.TrimSpace(string(output)))
		}
		logger.Debug("Remote database not ready yet", "env", env.Name, "attempt", attempt, "error", lastErr)

		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for database on %s: %w (last error: %v)", env.Name, ctx.Err(), lastErr)
		case <-time.After(interval):
		}
	}
}
