package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/hibiken/asynq"

	"github.com/paperdesk/backoffice/jobs"
)

// JobsCLI wraps manual management helpers for the background queue.
type JobsCLI struct {
	client    jobs.Enqueuer
	inspector *asynq.Inspector
	closers   []io.Closer
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) *JobsCLI {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	client := jobs.NewClient(opts)
	inspector := asynq.NewInspector(opts)
	return &JobsCLI{client: client, inspector: inspector, closers: []io.Closer{client, inspector}}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var errs []error
	for _, closer := range c.closers {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}

// Trigger enqueues a supported job by task name for asOf (empty means the
// day the worker runs it) and returns the task id.
func (c *JobsCLI) Trigger(ctx context.Context, name, asOf string) (string, error) {
	if c == nil || c.client == nil {
		return "", errors.New("jobs cli: client not configured")
	}
	switch name {
	case jobs.TaskFinancialSnapshot:
		return c.client.EnqueueFinancialSnapshot(ctx, asOf)
	case jobs.TaskReorderScan:
		return c.client.EnqueueReorderScan(ctx, asOf)
	default:
		return "", fmt.Errorf("jobs cli: unsupported job %s", name)
	}
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue(ctx context.Context) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
	}
	return stats, nil
}

// ListScheduled returns scheduled task infos for observability.
func (c *JobsCLI) ListScheduled(ctx context.Context, size int) ([]*asynq.TaskInfo, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	if size <= 0 {
		size = 10
	}
	return c.inspector.ListScheduledTasks(jobs.QueueDefault, asynq.PageSize(size), asynq.Page(1))
}

// JobsOptions defines the inputs of the jobs command.
type JobsOptions struct {
	Args   []string
	Stdout io.Writer
	Stderr io.Writer
}

var jobAliases = map[string]string{
	"financial-snapshot":       jobs.TaskFinancialSnapshot,
	"reorder-scan":             jobs.TaskReorderScan,
	jobs.TaskFinancialSnapshot: jobs.TaskFinancialSnapshot,
	jobs.TaskReorderScan:       jobs.TaskReorderScan,
}

// JobsCommand runs `jobs trigger <name> [-as-of DATE]`, `jobs stats` or
// `jobs scheduled [-n N]` and returns the process exit code.
func (c *JobsCLI) JobsCommand(ctx context.Context, opts JobsOptions) int {
	opts.Stdout, opts.Stderr = defaultWriters(opts.Stdout, opts.Stderr)
	if len(opts.Args) == 0 {
		_, _ = fmt.Fprintln(opts.Stderr, "usage: jobs <trigger|stats|scheduled> [flags]")
		return 2
	}
	sub, rest := opts.Args[0], opts.Args[1:]
	switch sub {
	case "trigger":
		fs := flag.NewFlagSet("jobs trigger", flag.ContinueOnError)
		fs.SetOutput(opts.Stderr)
		asOf := fs.String("as-of", "", "projection cutoff, YYYY-MM-DD (default: the day the job runs)")
		if err := fs.Parse(rest); err != nil {
			return 2
		}
		if fs.NArg() != 1 {
			_, _ = fmt.Fprintln(opts.Stderr, "usage: jobs trigger <financial-snapshot|reorder-scan> [-as-of DATE]")
			return 2
		}
		name, ok := jobAliases[fs.Arg(0)]
		if !ok {
			_, _ = fmt.Fprintf(opts.Stderr, "jobs trigger: unknown job %q\n", fs.Arg(0))
			return 2
		}
		id, err := c.Trigger(ctx, name, *asOf)
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "jobs trigger: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintf(opts.Stdout, "enqueued %s task %s\n", name, id)
		return 0
	case "stats":
		stats, err := c.InspectQueue(ctx)
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "jobs stats: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintf(opts.Stdout, "queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
		return 0
	case "scheduled":
		fs := flag.NewFlagSet("jobs scheduled", flag.ContinueOnError)
		fs.SetOutput(opts.Stderr)
		size := fs.Int("n", 10, "page size")
		if err := fs.Parse(rest); err != nil {
			return 2
		}
		infos, err := c.ListScheduled(ctx, *size)
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "jobs scheduled: %v\n", err)
			return 1
		}
		for _, info := range infos {
			_, _ = fmt.Fprintf(opts.Stdout, "%s\t%s\t%s\n", info.ID, info.Type, info.NextProcessAt.Format("2006-01-02T15:04:05Z07:00"))
		}
		return 0
	default:
		_, _ = fmt.Fprintf(opts.Stderr, "jobs: unknown subcommand %q\n", sub)
		return 2
	}
}
