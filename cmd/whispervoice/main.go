// Command whispervoice transcribes WAV files or microphone input offline.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pauvepe/whispervoice/internal/appinfo"
	"github.com/pauvepe/whispervoice/internal/audio"
	"github.com/pauvepe/whispervoice/internal/binding"
	"github.com/pauvepe/whispervoice/internal/config"
	"github.com/pauvepe/whispervoice/internal/engine"
	"github.com/pauvepe/whispervoice/internal/logging"
	"github.com/pauvepe/whispervoice/internal/models"
	"github.com/pauvepe/whispervoice/internal/update"
	"github.com/pauvepe/whispervoice/internal/whisper"
)

const usage = `usage: whispervoice <command> [flags]

commands:
  transcribe <file.wav>   transcribe a 16 kHz mono PCM16 WAV file
  record                  record from the microphone until Enter, then transcribe
  check-update            report whether a newer release is available
  version                 print the version
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Loader{}.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "whispervoice: load configuration: %v\n", err)
		os.Exit(1)
	}
	logger, closer := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Stdout: os.Stderr})
	defer closer.Close()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "transcribe":
		err = runTranscribe(ctx, cfg, logger, args, os.Stdout)
	case "record":
		err = runRecord(ctx, cfg, logger, args, os.Stdin, os.Stdout)
	case "check-update":
		err = runCheckUpdate(ctx, cfg, logger, os.Stdout)
	case "version":
		fmt.Println(appinfo.Info.Name, appinfo.VersionTag())
	default:
		fmt.Fprintf(os.Stderr, "whispervoice: unknown command %q\n\n%s", cmd, usage)
		closer.Close()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "whispervoice %s: %v\n", cmd, err)
		closer.Close()
		os.Exit(1)
	}
}

func runTranscribe(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("transcribe", flag.ContinueOnError)
	model := fs.String("model", "", "model file path (overrides configuration)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one WAV file")
	}

	clip, err := audio.ReadWAVFile(fs.Arg(0))
	if err != nil {
		return err
	}
	if clip.SampleRate != whisper.SampleRate {
		return fmt.Errorf("sample rate %d Hz not supported, expected %d Hz", clip.SampleRate, whisper.SampleRate)
	}
	logger.Debug("wav decoded", "path", fs.Arg(0), "duration_ms", clip.DurationMillis())

	if *model != "" {
		cfg.ModelPath = *model
	}
	return transcribe(ctx, cfg, logger, whisper.Int16ToFloat32(clip.Samples), out)
}

func runRecord(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("record", flag.ContinueOnError)
	save := fs.String("save", "", "also write the recording to this WAV file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rec := audio.NewRecorder(audio.RecordSampleRate, logger)
	if err := rec.Start(); err != nil {
		return err
	}
	fmt.Fprintln(out, "Recording... press Enter to stop.")

	pressed := make(chan struct{})
	go func() {
		bufio.NewReader(in).ReadString('\n')
		close(pressed)
	}()
	select {
	case <-pressed:
	case <-ctx.Done():
	}

	pcm, err := rec.Stop()
	if err != nil {
		return err
	}
	if *save != "" {
		if err := audio.WriteWAVFile(*save, pcm, audio.RecordSampleRate); err != nil {
			return fmt.Errorf("save recording: %w", err)
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return transcribe(ctx, cfg, logger, whisper.Int16ToFloat32(pcm), out)
}

func transcribe(ctx context.Context, cfg config.Config, logger *slog.Logger, samples []float32, out io.Writer) error {
	manager, err := models.NewManager(cfg.DataDir, logger)
	if err != nil {
		return err
	}
	sel, err := engine.New(ctx, cfg, manager, logger)
	if err != nil {
		if !errors.Is(err, whisper.ErrNativeUnavailable) {
			return err
		}
		logger.Warn("native backend unavailable; transcripts come from the stub")
	}

	registry := binding.NewRegistry(sel.Backend, cfg.Params(), logger)
	defer registry.Close()

	token, err := registry.Open(sel.ModelPath)
	if err != nil {
		return err
	}

	start := time.Now()
	res := registry.TranscribeResult(token, samples)
	if err := res.Err(); err != nil {
		return err
	}
	logger.Info("transcription complete",
		"samples", len(samples),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	fmt.Fprintln(out, res.Text)
	return nil
}

func runCheckUpdate(ctx context.Context, cfg config.Config, logger *slog.Logger, out io.Writer) error {
	checker := update.NewChecker(cfg.UpdateRepo, logger)
	release, newer, err := checker.Check(ctx, appinfo.Info.Version)
	if err != nil {
		return err
	}
	if !newer {
		fmt.Fprintf(out, "%s is up to date (latest %s)\n", appinfo.VersionTag(), release.Tag)
		return nil
	}
	fmt.Fprintf(out, "Update available: %s -> %s\n%s\n", appinfo.VersionTag(), release.Tag, release.DownloadURL)
	return nil
}
