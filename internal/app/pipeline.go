package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"labeleval/internal/classify"
	"labeleval/internal/config"
	"labeleval/internal/dataset"
	"labeleval/internal/domain"
	"labeleval/internal/evaluate"
	"labeleval/internal/httpx"
	"labeleval/internal/integrations/llm"
	"labeleval/internal/labels"
	applog "labeleval/internal/log"
	"labeleval/internal/notify"
	"labeleval/internal/report"
	"labeleval/internal/telemetry"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// newBackend is swapped in tests.
var newBackend = llm.New

type pipeline struct {
	cfg      config.Config
	log      *logrus.Logger
	notifier *notify.Notifier
	stdout   io.Writer
}

func newPipeline(cfg config.Config, stdout, stderr io.Writer) *pipeline {
	logger := applog.New(applog.Options{Level: cfg.LogLevel, File: cfg.LogFile, Output: stderr})
	applied := httpx.Configure(httpx.Settings{
		TimeoutSeconds:  cfg.ExternalHTTPTimeoutSeconds,
		MaxConnsPerHost: cfg.LLMConcurrency,
	})
	logger.WithFields(logrus.Fields{
		"provider":     cfg.LLMProvider,
		"model":        cfg.LLMModel,
		"attempts":     cfg.LLMMaxAttempts,
		"concurrency":  cfg.LLMConcurrency,
		"rps":          cfg.LLMRequestsPerSecond,
		"call_timeout": cfg.CallTimeout(),
		"http_timeout": applied,
	}).Debug("config loaded")
	return &pipeline{
		cfg:      cfg,
		log:      logger,
		notifier: notify.New(cfg.SlackWebhookURL),
		stdout:   stdout,
	}
}

// runResult is what one batch run produced.
type runResult struct {
	RunID       string
	Predictions []domain.Prediction
	Metrics     domain.MetricsRecord
	// Usage sums the tokens of successful conversations.
	Usage llm.Usage
}

func (p *pipeline) run(ctx context.Context, opts runOptions) (runResult, error) {
	res := runResult{RunID: uuid.NewString()}
	started := time.Now()
	entry := p.log.WithField("run_id", res.RunID)
	metrics := telemetry.NewMetrics()
	events := &classify.EventLog{}
	var usageMu sync.Mutex

	cfg := p.cfg
	if strings.TrimSpace(opts.Model) != "" {
		cfg.LLMModel = strings.TrimSpace(opts.Model)
	}
	model := cfg.LLMModel

	err := func() error {
		table, err := p.loadTable(opts.In, opts.Limit)
		if err != nil {
			return err
		}
		tmpl, err := classify.LoadTemplate(opts.Prompt)
		if err != nil {
			return err
		}
		vocab, err := p.vocabulary(table)
		if err != nil {
			return err
		}

		backend, err := newBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer backend.Close()
		model = backend.Model()

		classifier := classify.NewClassifier(backend, tmpl, labels.NewValidator(vocab), classify.Options{
			MaxAttempts:  cfg.LLMMaxAttempts,
			PromptBudget: cfg.PromptUsedMaxChars,
			MaxTokens:    cfg.LLMMaxTokens,
			CallTimeout:  cfg.CallTimeout(),
			RunID:        res.RunID,
			Recorder:     classify.Recorders(events, metrics),
			Log:          entry,
		})
		runner := &classify.Runner{
			Classifier: classifier,
			Workers:    cfg.LLMConcurrency,
			Limiter:    classify.NewLimiter(cfg.LLMRequestsPerSecond),
			Log:        entry,
			OnResult: func(_ domain.Prediction, trace classify.Trace) {
				metrics.ConversationsClassified.Inc()
				usageMu.Lock()
				res.Usage.Add(trace.Usage)
				usageMu.Unlock()
			},
		}
		preds, err := runner.Run(ctx, table.Conversations)
		if err != nil {
			return err
		}
		res.Predictions = preds

		if err := dataset.WritePredictions(opts.PredOut, preds); err != nil {
			return err
		}
		entry.WithFields(logrus.Fields{"path": opts.PredOut, "rows": len(preds)}).Info("predictions written")

		res.Metrics, err = p.writeReports(evaluate.Join(table.Conversations, preds), opts.ExcelOut, opts.CMDir)
		if err != nil {
			return err
		}
		metrics.ObserveEvaluation(res.Metrics)
		return nil
	}()

	if opts.AuditOut != "" {
		if auditErr := report.WriteAudit(opts.AuditOut, events.Events()); auditErr != nil {
			entry.WithError(auditErr).Warn("audit write failed")
		}
	}
	metrics.ObserveRun(started, err)
	if mErr := metrics.WriteTextfile(p.cfg.MetricsTextfile); mErr != nil {
		entry.WithError(mErr).Warn("metrics textfile write failed")
	}

	var summary string
	if err == nil {
		summary = report.FormatSummary(res.Metrics)
		fmt.Fprint(p.stdout, summary)
		entry.WithFields(logrus.Fields{
			"duration_ms":   time.Since(started).Milliseconds(),
			"input_tokens":  res.Usage.InputTokens,
			"output_tokens": res.Usage.OutputTokens,
			"total_tokens":  res.Usage.TotalTokens(),
		}).Info("run finished")
	}
	if nErr := p.notifier.RunSummary(context.WithoutCancel(ctx), res.RunID, model, summary, err); nErr != nil {
		entry.WithError(nErr).Warn("slack notification failed")
	}
	return res, err
}

func (p *pipeline) evaluate(ctx context.Context, in, predPath, excelOut, cmDir string) (domain.MetricsRecord, error) {
	table, err := p.loadTable(in, 0)
	if err != nil {
		return domain.MetricsRecord{}, err
	}
	preds, err := dataset.ReadPredictions(predPath)
	if err != nil {
		return domain.MetricsRecord{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.MetricsRecord{}, err
	}
	rec, err := p.writeReports(evaluate.Join(table.Conversations, preds), excelOut, cmDir)
	if err != nil {
		return domain.MetricsRecord{}, err
	}
	fmt.Fprint(p.stdout, report.FormatSummary(rec))
	return rec, nil
}

func (p *pipeline) loadTable(path string, limit int) (*dataset.Table, error) {
	table, stats, err := dataset.Load(path, p.log.WithField("component", "dataset"))
	if err != nil {
		return nil, err
	}
	p.log.WithFields(logrus.Fields{"path": path, "records": stats.Records, "skipped": stats.Skipped}).Info("dataset loaded")
	if table.Len() == 0 {
		return nil, fmt.Errorf("dataset %s contains no conversations", path)
	}
	return table.Head(limit), nil
}

// vocabulary prefers the configured file, then gold labels, then defaults.
func (p *pipeline) vocabulary(table *dataset.Table) (*labels.Vocabulary, error) {
	if path := strings.TrimSpace(p.cfg.VocabularyPath); path != "" {
		return labels.LoadVocabulary(path)
	}
	if table == nil {
		return labels.DefaultVocabulary(), nil
	}
	return labels.VocabularyFromGold(table.Conversations), nil
}

func (p *pipeline) writeReports(rows []evaluate.Row, excelOut, cmDir string) (domain.MetricsRecord, error) {
	rec := evaluate.Compute(rows)
	if err := report.WriteWorkbook(excelOut, rows, rec); err != nil {
		return rec, err
	}
	paths, err := report.WriteConfusions(cmDir, rows, p.cfg.ConfusionTopK)
	if err != nil {
		return rec, err
	}
	p.log.WithFields(logrus.Fields{"workbook": excelOut, "confusions": len(paths)}).Info("reports written")
	return rec, nil
}
