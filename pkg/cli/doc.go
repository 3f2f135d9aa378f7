/*
Package cli provides command-line plumbing shared by the stratum command:
exit-coded errors, output formatters, progress reporting and signal-aware
contexts.

Errors and Exit Codes:

Commands return typed errors; the root command maps them to process exit
codes with ExitCode (0 success, 2 usage errors, 1 everything else):

	if key == "" {
		return cli.NewUsageError("missing required argument: KEY")
	}
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

Output Formatting:

Command results render as text or JSON depending on the --format flag:

	format, err := cli.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(os.Stdout, result)

CSV output exists only for audit exports and is produced by the streaming
writers in pkg/audit/export, not by a generic formatter.

Progress Reporting:

For long-running operations, use the progress reporter:

	progress := cli.NewProgressReporter(nil)
	progress.Start(int64(len(events)))
	for i, event := range events {
		// Do work
		progress.Update(int64(i + 1))
	}
	progress.Finish()

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SignalContext()
	defer stop()
	// Use ctx for operations that should be cancelled on shutdown
*/
package cli
