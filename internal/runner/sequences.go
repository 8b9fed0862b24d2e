// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"fmt"
	"os"
	"strconv"

	"crmstack/internal/config"
	"crmstack/internal/database"
	"crmstack/internal/project"
)

// testPassthroughVars are forwarded verbatim into the pytest container.
var testPassthroughVars = []string{"TEST_DATABASE_URL", "PYTHONPATH"}

// composeStep builds a Step invoking the engine's compose subsystem in the
// environment's project directory.
func composeStep(env project.Environment, cfg config.Config, name string, composeArgs ...string) Step {
	return Step{
		Name:    name,
		Command: cfg.Engine,
		Args:    append([]string{"compose"}, composeArgs...),
		Env:     env,
	}
}

// BuildSequence builds all images, or one service's image when service is
// non-empty.
func BuildSequence(env project.Environment, cfg config.Config, service string) []Step {
	args := []string{"build"}
	if service != "" {
		args = append(args, service)
	}
	return []Step{composeStep(env, cfg, "Build Images", args...)}
}

// UpSequence starts the full stack detached, optionally pulling images first.
func UpSequence(env project.Environment, cfg config.Config, pull bool) []Step {
	var steps []Step
	if pull {
		steps = append(steps, composeStep(env, cfg, "Pull Images", "pull"))
	}
	steps = append(steps, composeStep(env, cfg, "Start Containers", "up", "-d"))
	return steps
}

// UpDBSequence starts only the database service detached. The readiness
// probe that follows is driven by the caller.
func UpDBSequence(env project.Environment, cfg config.Config) []Step {
	return []Step{
		composeStep(env, cfg, "Start Database", "up", "-d", cfg.DBService),
	}
}

// DownSequence stops the stack. With removeVolumes the named volumes are
// destroyed as well.
func DownSequence(env project.Environment, cfg config.Config, removeVolumes bool) []Step {
	args := []string{"down"}
	name := "Stop Containers"
	if removeVolumes {
		args = append(args, "-v")
		name = "Stop Containers and Remove Volumes"
	}
	return []Step{composeStep(env, cfg, name, args...)}
}

// RestartSequence restarts the whole stack, or a single service when
// service is non-empty.
func RestartSequence(env project.Environment, cfg config.Config, service string) []Step {
	args := []string{"restart"}
	name := "Restart Containers"
	if service != "" {
		args = append(args, service)
		name = fmt.Sprintf("Restart %s", service)
	}
	return []Step{composeStep(env, cfg, name, args...)}
}

// MigrateSequence applies alembic migrations inside the running app
// container, up to the given revision ("head" when empty).
func MigrateSequence(env project.Environment, cfg config.Config, revision string) []Step {
	if revision == "" {
		revision = "head"
	}
	return []Step{
		composeStep(env, cfg, "Apply Migrations",
			"exec", "-T", cfg.AppService, "alembic", "upgrade", revision),
	}
}

// SeedSequence creates the admin user(s) from ADMIN_PHONE(S) by running the
// project's seed script inside the app container.
func SeedSequence(env project.Environment, cfg config.Config) []Step {
	return []Step{
		composeStep(env, cfg, "Seed Admin",
			"exec", "-T", cfg.AppService, "python", "-m", "crm_bot.scripts.seed_admin"),
	}
}

// CloseShiftsSequence force-closes any open work shifts via the project's
// maintenance script.
func CloseShiftsSequence(env project.Environment, cfg config.Config) []Step {
	return []Step{
		composeStep(env, cfg, "Close Open Shifts",
			"exec", "-T", cfg.AppService, "python", "-m", "crm_bot.scripts.close_shifts"),
	}
}

// LogsStep follows (or dumps, when follow is false) service logs. An empty
// service targets the whole stack.
func LogsStep(env project.Environment, cfg config.Config, service string, follow bool, tail int) Step {
	if tail <= 0 {
		tail = cfg.LogTail
	}
	args := []string{"logs", "--tail", strconv.Itoa(tail)}
	if follow {
		args = append(args, "-f")
	}
	if service != "" {
		args = append(args, service)
	}
	return composeStep(env, cfg, "Logs", args...)
}

// TestSequence rebuilds the app image and runs pytest in a one-off
// container. TEST_DATABASE_URL and PYTHONPATH pass through from the
// caller's environment untouched.
func TestSequence(env project.Environment, cfg config.Config, pytestArgs []string) []Step {
	runArgs := []string{"run", "--rm"}
	var extraEnv []string
	for _, key := range testPassthroughVars {
		runArgs = append(runArgs, "-e", key)
		if value, ok := os.LookupEnv(key); ok {
			extraEnv = append(extraEnv, key+"="+value)
		}
	}
	runArgs = append(runArgs, cfg.AppService, "pytest")
	runArgs = append(runArgs, pytestArgs...)

	testStep := composeStep(env, cfg, "Run Tests", runArgs...)
	testStep.ExtraEnv = extraEnv

	return []Step{
		composeStep(env, cfg, "Rebuild App Image", "build", cfg.AppService),
		testStep,
	}
}

// SequenceOptions tune SequenceFor for actions that take parameters.
type SequenceOptions struct {
	Revision string // migrate target, default "head"
	Service  string // build/restart target, default all
	Pull     bool   // pull images before up
}

// SequenceFor maps a named non-interactive action to its steps. Interactive
// operations (shell, db-shell, logs, test) have dedicated constructors and
// are not reachable through this mapping.
func SequenceFor(action string, env project.Environment, cfg config.Config, opts SequenceOptions) ([]Step, error) {
	switch action {
	case "build":
		return BuildSequence(env, cfg, opts.Service), nil
	case "up":
		return UpSequence(env, cfg, opts.Pull), nil
	case "up-db":
		return UpDBSequence(env, cfg), nil
	case "down":
		return DownSequence(env, cfg, false), nil
	case "down-v":
		return DownSequence(env, cfg, true), nil
	case "restart":
		return RestartSequence(env, cfg, opts.Service), nil
	case "restart-app":
		return RestartSequence(env, cfg, cfg.AppService), nil
	case "migrate":
		return MigrateSequence(env, cfg, opts.Revision), nil
	case "seed":
		return SeedSequence(env, cfg), nil
	case "close-shifts":
		return CloseShiftsSequence(env, cfg), nil
	default:
		return nil, fmt.Errorf("unknown action '%s'", action)
	}
}

// ShellStep opens an interactive shell inside a running service container
// (the app service when service is empty).
func ShellStep(env project.Environment, cfg config.Config, service string) Step {
	if service == "" {
		service = cfg.AppService
	}
	return composeStep(env, cfg, "Shell", "exec", service, "bash")
}

// DBShellStep opens an interactive psql session inside the db container,
// using credentials from the configured database URL.
func DBShellStep(env project.Environment, cfg config.Config) (Step, error) {
	params, err := database.Parse(cfg.DatabaseURL)
	if err != nil {
		return Step{}, fmt.Errorf("cannot derive psql credentials: %w", err)
	}

	args := []string{"exec", cfg.DBService, "psql", "-U", params.User}
	if params.Database != "" {
		args = append(args, params.Database)
	}
	return composeStep(env, cfg, "Database Shell", args...), nil
}
