package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"labeleval/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestPredictionsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "preds.csv")
	preds := []domain.Prediction{
		{
			ConversationID: "c1",
			Labels: domain.LabelAssignment{
				ResponseStatus: domain.ResponseResolved,
				Sentiment:      domain.SentimentNeutral,
				CategoryType:   domain.TypeInformationRequest,
				Intent:         "Billing",
				IntentDetail:   "Invoice, copy",
			},
			PromptUsed: "line one\nline \"two\"",
			RawOutput:  `{"intent":"Billing"}`,
		},
	}
	require.NoError(t, WritePredictions(path, preds))

	got, err := ReadPredictions(path)
	require.NoError(t, err)
	require.Equal(t, preds, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestReadPredictionsMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preds.csv")
	require.NoError(t, os.WriteFile(path, []byte("conversation_id,pred_sentiment\nc1,Positive\n"), 0o644))
	_, err := ReadPredictions(path)
	require.ErrorIs(t, err, domain.ErrMissingColumn)
	require.Contains(t, err.Error(), "pred_intent")
}

func TestReadPredictionsMissingFile(t *testing.T) {
	_, err := ReadPredictions(filepath.Join(t.TempDir(), "nope.csv"))
	require.ErrorIs(t, err, domain.ErrMissingFile)
}

func TestReadPredictionsOptionalColumnsAndBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preds.csv")
	body := "\ufeffconversation_id,pred_response_status,pred_sentiment,pred_category_type,pred_intent,pred_intent_detail\n" +
		"a,Resolved,Positive,Question,X,\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	got, err := ReadPredictions(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "X", got[0].Labels.Intent)
	require.Empty(t, got[0].Labels.IntentDetail)
	require.Empty(t, got[0].PromptUsed)
}
