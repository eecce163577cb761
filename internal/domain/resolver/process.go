package resolver

import (
	"context"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"

	"github.com/deskd/deskd/internal/infrastructure/logging"
	"github.com/deskd/deskd/internal/infrastructure/monitoring"
)

// closeGrace is how long a process gets to exit after a graceful
// termination request before it is killed.
const closeGrace = 2 * time.Second

// closePollInterval is how often liveness is re-checked during the grace
// period.
const closePollInterval = 50 * time.Millisecond

// processController implements the lifecycle operations shared by every
// platform resolver on top of the OS process table.
type processController struct {
	log     *logging.Logger
	metrics *monitoring.Metrics
}

func newProcessController(log *logging.Logger, metrics *monitoring.Metrics) *processController {
	return &processController{log: log, metrics: metrics}
}

// matchProcesses returns running processes whose name matches the
// normalized query, case-insensitively by substring. Processes that refuse
// introspection are treated as non-matches; scanning continues.
func (p *processController) matchProcesses(ctx context.Context, name string) ([]*process.Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	var matches []*process.Process
	for _, proc := range procs {
		procName, err := proc.NameWithContext(ctx)
		if err != nil {
			continue
		}
		lower := strings.ToLower(procName)
		if strings.Contains(lower, name) || baseName(procName) == name {
			matches = append(matches, proc)
		}
	}
	return matches, nil
}

// status reports Running when any process matches the name.
func (p *processController) status(ctx context.Context, name string) (Status, error) {
	matches, err := p.matchProcesses(ctx, name)
	if err != nil {
		return StatusStopped, err
	}
	if len(matches) > 0 {
		return StatusRunning, nil
	}
	return StatusStopped, nil
}

// close requests graceful termination of every process matching the name,
// waits out the grace period, and escalates to a forced kill for anything
// still alive. Closing a name with no matching process is a successful
// no-op.
func (p *processController) close(ctx context.Context, name string) error {
	matches, err := p.matchProcesses(ctx, name)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		p.log.Debug("close is a no-op, no matching process", zap.String("name", name))
		return nil
	}

	var pending []*process.Process
	for _, proc := range matches {
		if err := proc.TerminateWithContext(ctx); err != nil {
			// Permission or liveness race; the kill pass retries below.
			p.log.Debug("graceful terminate failed",
				zap.Int32("pid", proc.Pid), zap.Error(err))
		}
		pending = append(pending, proc)
	}

	deadline := time.Now().Add(closeGrace)
	for time.Now().Before(deadline) && len(pending) > 0 {
		pending = stillRunning(ctx, pending)
		if len(pending) == 0 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(closePollInterval):
		}
	}

	for _, proc := range stillRunning(ctx, pending) {
		p.log.Info("escalating to forced termination",
			zap.String("name", name), zap.Int32("pid", proc.Pid))
		if err := proc.KillWithContext(ctx); err != nil {
			p.log.Debug("kill failed", zap.Int32("pid", proc.Pid), zap.Error(err))
		}
		p.recordTermination("forced")
	}
	if len(pending) == 0 {
		p.recordTermination("graceful")
	}
	return nil
}

func stillRunning(ctx context.Context, procs []*process.Process) []*process.Process {
	var alive []*process.Process
	for _, proc := range procs {
		running, err := proc.IsRunningWithContext(ctx)
		if err == nil && running {
			alive = append(alive, proc)
		}
	}
	return alive
}

// list snapshots every process, best-effort annotated with its executable
// path and a responsiveness flag. Entries that refuse introspection are
// still included under the system sentinel path.
func (p *processController) list(ctx context.Context) ([]AppInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]AppInfo, 0, len(procs))
	for _, proc := range procs {
		name, err := proc.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}

		info := AppInfo{PID: proc.Pid, Name: name, Path: SystemPath, Responding: true}
		if exe, err := proc.ExeWithContext(ctx); err == nil && exe != "" {
			info.Path = exe
		}
		if statuses, err := proc.StatusWithContext(ctx); err == nil {
			for _, s := range statuses {
				if s == process.Zombie || s == process.Stop {
					info.Responding = false
				}
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// candidates exposes matching processes' executables as probe candidates.
func (p *processController) candidates(ctx context.Context, name string) []Candidate {
	matches, err := p.matchProcesses(ctx, name)
	if err != nil {
		return nil
	}

	var out []Candidate
	for _, proc := range matches {
		exe, err := proc.ExeWithContext(ctx)
		if err != nil || exe == "" {
			continue
		}
		if c, ok := candidateFromFile(exe); ok {
			out = append(out, c)
		}
	}
	return out
}

// enumerate maps every introspectable process name to its executable, for
// cache population.
func (p *processController) enumerate(ctx context.Context) (map[string]ResolvedExecutable, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	table := make(map[string]ResolvedExecutable)
	for _, proc := range procs {
		name, err := proc.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}
		exe, err := proc.ExeWithContext(ctx)
		if err != nil || exe == "" {
			continue
		}
		key := baseName(name)
		if _, exists := table[key]; !exists {
			table[key] = ResolvedExecutable{Path: exe, Origin: "process"}
		}
	}
	return table, nil
}

func (p *processController) recordTermination(mode string) {
	if p.metrics != nil {
		p.metrics.RecordTermination(mode)
	}
}
