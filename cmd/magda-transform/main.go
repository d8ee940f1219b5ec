package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"

	transformagent "github.com/Conceptual-Machines/magda-transforms-go/agents/transform"
	"github.com/Conceptual-Machines/magda-transforms-go/config"
	"github.com/Conceptual-Machines/magda-transforms-go/metrics"
	"github.com/Conceptual-Machines/magda-transforms-go/midifile"
	"github.com/Conceptual-Machines/magda-transforms-go/models"
	"github.com/Conceptual-Machines/magda-transforms-go/music"
	"github.com/Conceptual-Machines/magda-transforms-go/prompt"
	"github.com/Conceptual-Machines/magda-transforms-go/transform"
	"github.com/Conceptual-Machines/magda-transforms-go/transform/waveform"
)

type options struct {
	in        string
	out       string
	program   string
	file      string
	scale     string
	clipIndex int
	clipCount int
	position  string
	repl      bool
	generate  string
	audio     string
	seed      int64
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("magda-transform", flag.ContinueOnError)
	opts := &options{}
	fs.StringVar(&opts.in, "in", "", "input .mid file")
	fs.StringVar(&opts.out, "out", "", "write the transformed notes to this .mid file")
	fs.StringVar(&opts.program, "program", "", "transform program text; a syntax error aborts without writing -out")
	fs.StringVar(&opts.file, "file", "", "read the transform program from a file; a syntax error aborts without writing -out")
	fs.StringVar(&opts.scale, "scale", "", `clip scale for quant()/step(), e.g. "D minor"`)
	fs.IntVar(&opts.clipIndex, "clip-index", 0, "index of the clip among the selected clips")
	fs.IntVar(&opts.clipCount, "clip-count", 1, "number of selected clips")
	fs.StringVar(&opts.position, "position", "", `arrangement start of the clip, in beats ("16") or bars:beats ("4:0t"); empty for a session clip`)
	fs.BoolVar(&opts.repl, "repl", false, "enter transform lines interactively")
	fs.StringVar(&opts.generate, "generate", "", "describe the transform in words and let the model write it")
	fs.StringVar(&opts.audio, "audio", "", "treat the clip as audio with the given gain,pitchShift; a syntax error aborts instead of leaving the clip unchanged")
	fs.Int64Var(&opts.seed, "seed", 0, "seed for rand()/choose()/noise() (0: time-seeded)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.program != "" && opts.file != "" {
		return nil, errors.New("use either -program or -file, not both")
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("❌ %v", err)
	}

	cfg := config.Load()
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
		}); err != nil {
			log.Printf("⚠️  Sentry initialization failed: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	if err := run(context.Background(), cfg, opts, os.Stdout); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

// run applies the program to a MIDI or audio clip. Unlike the library entry points,
// which treat a syntax error as a no-op, the command reports it and fails for both
// clip kinds. The REPL prints it and keeps going.
func run(ctx context.Context, cfg *config.Config, opts *options, w io.Writer) error {
	engineOpts := []transform.Option{transform.WithMetrics(metrics.NewSentryMetrics())}
	if opts.seed != 0 {
		engineOpts = append(engineOpts, transform.WithRandomSource(waveform.NewSeededSource(opts.seed)))
	}
	engine := transform.NewEngine(engineOpts...)

	if opts.audio != "" {
		return runAudio(ctx, cfg, opts, engine, w)
	}
	if opts.in == "" {
		return errors.New("-in is required for MIDI clips")
	}

	clip, err := midifile.ReadFile(opts.in)
	if err != nil {
		return err
	}
	clipCtx, err := buildClipContext(opts, clip.TimeSignature, clip.TimeSignature.BeatsToMusical(clip.Duration()))
	if err != nil {
		return err
	}
	log.Printf("🎹 Loaded %s: %d notes, %d/%d, %.0f BPM",
		opts.in, len(clip.Notes), clip.TimeSignature.Numerator, clip.TimeSignature.Denominator, clip.BPM)

	sess := &session{engine: engine, clip: clip, clipCtx: clipCtx, out: opts.out, w: w}

	source, err := programSource(ctx, cfg, opts, &prompt.ClipInfo{
		TimeSignature: fmt.Sprintf("%d/%d", clip.TimeSignature.Numerator, clip.TimeSignature.Denominator),
		NoteCount:     len(clip.Notes),
		Bars:          int(clipCtx.ClipDuration / float64(clip.TimeSignature.Numerator)),
		Scale:         opts.scale,
	})
	if err != nil {
		return err
	}
	if source != "" {
		if err := sess.apply(ctx, source); err != nil {
			return err
		}
	}

	if opts.repl {
		return sess.repl(ctx)
	}
	return sess.save()
}

func runAudio(ctx context.Context, cfg *config.Config, opts *options, engine *transform.Engine, w io.Writer) error {
	props, err := parseAudioProperties(opts.audio)
	if err != nil {
		return err
	}
	clipCtx, err := buildClipContext(opts, models.CommonTime, 0)
	if err != nil {
		return err
	}

	source, err := programSource(ctx, cfg, opts, &prompt.ClipInfo{Audio: true})
	if err != nil {
		return err
	}
	program, err := transform.Parse(source)
	if err != nil {
		return err
	}

	result, report := engine.ApplyAudio(ctx, props, program, clipCtx)
	fmt.Fprintln(w, renderAudio(props, result))
	fmt.Fprintln(w, renderReport(report))
	return nil
}

// programSource resolves the program from -program, -file or -generate, in that order
func programSource(ctx context.Context, cfg *config.Config, opts *options, clip *prompt.ClipInfo) (string, error) {
	switch {
	case opts.program != "":
		return opts.program, nil
	case opts.file != "":
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return "", fmt.Errorf("failed to read program file: %w", err)
		}
		return string(data), nil
	case opts.generate != "":
		agent, err := transformagent.NewAgent(ctx, cfg)
		if err != nil {
			return "", err
		}
		result, err := agent.Generate(ctx, cfg.Model, opts.generate, &transformagent.GenerateOptions{Clip: clip})
		if err != nil {
			return "", err
		}
		log.Printf("🤖 Generated program (%d attempt(s), %d tokens):\n%s", result.Attempts, result.Usage.TotalTokens, result.Program)
		return result.Program, nil
	}
	return "", nil
}

// buildClipContext converts the clip flags; clipDuration is in musical beats
func buildClipContext(opts *options, ts models.TimeSignature, clipDuration float64) (*models.ClipContext, error) {
	if opts.clipCount < 1 || opts.clipIndex < 0 || opts.clipIndex >= opts.clipCount {
		return nil, fmt.Errorf("invalid clip index %d of %d", opts.clipIndex, opts.clipCount)
	}
	clipCtx := &models.ClipContext{
		ClipDuration: clipDuration,
		ClipIndex:    opts.clipIndex,
		ClipCount:    opts.clipCount,
		BarDuration:  float64(ts.Numerator),
	}
	if opts.position != "" {
		start, err := music.ParseBarBeatDuration(opts.position, ts.Numerator)
		if err != nil {
			return nil, fmt.Errorf("invalid -position: %w", err)
		}
		clipCtx.ArrangementStart = &start
	}
	if opts.scale != "" {
		mask, err := music.ParseScale(opts.scale)
		if err != nil {
			return nil, err
		}
		clipCtx.ScalePitchClassMask = &mask
	}
	return clipCtx, nil
}

// parseAudioProperties reads "gain,pitchShift"
func parseAudioProperties(value string) (models.AudioProperties, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return models.AudioProperties{}, fmt.Errorf("-audio expects gain,pitchShift, got %q", value)
	}
	gain, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return models.AudioProperties{}, fmt.Errorf("invalid gain %q: %w", parts[0], err)
	}
	shift, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return models.AudioProperties{}, fmt.Errorf("invalid pitch shift %q: %w", parts[1], err)
	}
	return models.AudioProperties{Gain: gain, PitchShift: shift}, nil
}
