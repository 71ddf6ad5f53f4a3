package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"labeleval/internal/classify"
	"labeleval/internal/config"
	"labeleval/internal/dataset"
	"labeleval/internal/labels"

	"github.com/robfig/cron/v3"
)

type runOptions struct {
	In       string
	Prompt   string
	PredOut  string
	ExcelOut string
	CMDir    string
	Model    string
	AuditOut string
	Limit    int
}

func (o *runOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&o.In, "in", "", "input dataset, JSON array or JSONL (required)")
	fs.StringVar(&o.Prompt, "prompt", "prompts/classify.txt", "prompt template containing "+classify.Placeholder)
	fs.StringVar(&o.PredOut, "pred-out", "outputs/predictions/preds.csv", "predictions CSV output path")
	fs.StringVar(&o.ExcelOut, "excel-out", "outputs/eval/eval.xlsx", "metrics workbook output path")
	fs.StringVar(&o.CMDir, "cm-dir", "outputs/eval/confusions", "directory for confusion CSV files")
	fs.StringVar(&o.Model, "model", "", "model override (default from config)")
	fs.StringVar(&o.AuditOut, "audit-out", "", "optional JSONL audit of every classification attempt")
	fs.IntVar(&o.Limit, "limit", 0, "classify only the first N conversations (0 = all)")
}

func (o runOptions) validate() error {
	if strings.TrimSpace(o.In) == "" {
		return errors.New("--in is required")
	}
	if o.Limit < 0 {
		return errors.New("--limit must be >= 0")
	}
	return nil
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func runCommand(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("run", stderr)
	var opts runOptions
	opts.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := opts.validate(); err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	p := newPipeline(cfg, stdout, stderr)
	_, err = p.run(ctx, opts)
	return err
}

func evaluateCommand(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("evaluate", stderr)
	in := fs.String("in", "", "gold dataset, JSON array or JSONL (required)")
	pred := fs.String("pred", "", "predictions CSV (required)")
	excelOut := fs.String("excel-out", "outputs/eval/eval.xlsx", "metrics workbook output path")
	cmDir := fs.String("cm-dir", "outputs/eval/confusions", "directory for confusion CSV files")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*in) == "" || strings.TrimSpace(*pred) == "" {
		return errors.New("--in and --pred are required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	p := newPipeline(cfg, stdout, stderr)
	_, err = p.evaluate(ctx, *in, *pred, *excelOut, *cmDir)
	return err
}

func vocabCommand(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("vocab", stderr)
	in := fs.String("in", "", "dataset whose gold labels define the vocabulary")
	out := fs.String("out", "", "also write the vocabulary as YAML to this path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	p := newPipeline(cfg, stdout, stderr)

	var table *dataset.Table
	if strings.TrimSpace(*in) != "" {
		if table, err = p.loadTable(*in, 0); err != nil {
			return err
		}
	}
	vocab, err := p.vocabulary(table)
	if err != nil {
		return err
	}
	printVocabulary(stdout, vocab)
	if strings.TrimSpace(*out) != "" {
		if err := vocab.Save(*out); err != nil {
			return err
		}
		p.log.WithField("path", *out).Info("vocabulary written")
	}
	return nil
}

func printVocabulary(w io.Writer, v *labels.Vocabulary) {
	fmt.Fprintf(w, "intents (%d):\n", len(v.Intents))
	for _, s := range v.Intents {
		fmt.Fprintf(w, "  - %s\n", s)
	}
	fmt.Fprintf(w, "intent_details (%d):\n", len(v.IntentDetails))
	for _, s := range v.IntentDetails {
		fmt.Fprintf(w, "  - %s\n", s)
	}
}

// scheduleCommand repeats run on a standard 5-field cron expression, e.g.
// "0 9 * * 1-5" for weekdays at 9am. A failed tick is logged and the
// schedule continues.
func scheduleCommand(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("schedule", stderr)
	var opts runOptions
	opts.register(fs)
	expr := fs.String("cron", "", "5-field cron expression (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := opts.validate(); err != nil {
		return err
	}
	sched, err := parseSchedule(*expr)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	p := newPipeline(cfg, stdout, stderr)
	p.log.WithField("cron", *expr).Info("schedule started")

	for {
		now := time.Now().In(cfg.Location)
		next := sched.Next(now)
		wait := next.Sub(now)
		p.log.Infof("next run at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Second))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			p.log.Info("schedule stopped")
			return nil
		case <-timer.C:
		}

		// Each tick gets its own run id; output files are overwritten.
		if _, err := p.run(ctx, opts); err != nil {
			p.log.WithError(err).Error("scheduled run failed")
		}
	}
}

func parseSchedule(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.New("--cron is required")
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return sched, nil
}
