package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"labeleval/internal/domain"
	"labeleval/internal/log"

	"github.com/stretchr/testify/require"
)

func TestParseJSONLTurnsAndGold(t *testing.T) {
	input := `{"id":"c1","messages":[{"role":"customer","text":"a"},{"role":"bot","text":""},{"role":"agent","text":"b"}],"gold_sentiment":"Negative","intent":"Billing"}
not json at all
{"conversation_id":"c2","dialog_text":"hello there","start_time":"2024-03-01 10:00:00","end_time":"2024-03-01 10:02:30"}
`
	table, stats, err := Parse([]byte(input), log.Discard())
	require.NoError(t, err)
	require.Equal(t, 2, stats.Records)
	require.Equal(t, 1, stats.Skipped)
	require.Equal(t, 2, table.Len())

	c1, ok := table.Lookup("c1")
	require.True(t, ok)
	require.Equal(t, "[Customer] a\n[Agent] b", c1.DialogText)
	require.Equal(t, map[domain.Category]string{
		domain.CategorySentiment: "Negative",
		domain.CategoryIntent:    "Billing",
	}, c1.Gold)
	require.Nil(t, c1.DurationSeconds)

	c2, ok := table.Lookup("c2")
	require.True(t, ok)
	require.Equal(t, "hello there", c2.DialogText)
	require.NotNil(t, c2.DurationSeconds)
	require.Equal(t, int64(150), *c2.DurationSeconds)
}

func TestParseArrayWithBOMAndPositionalIDs(t *testing.T) {
	input := "\ufeff" + `[{"turns":[{"speaker":"Müşteri","content":"merhaba"},{"speaker":"narrator","content":"x"}]}, 5, {"cid":42,"dialog_text":"y"}]`
	table, stats, err := Parse([]byte(input), log.Discard())
	require.NoError(t, err)
	require.Equal(t, 1, stats.Skipped)
	require.Equal(t, "0", table.Conversations[0].ID)
	require.Equal(t, "[Customer] merhaba\n[Unknown] x", table.Conversations[0].DialogText)
	require.Equal(t, "42", table.Conversations[1].ID)
}

func TestParseSohbetRecordWithBotSender(t *testing.T) {
	input := `{"sohbet_id":"s1","mesajlar":[{"sender":"Müşteri","text":"kargom nerede"},{"sender":"Mila","text":"kontrol ediyorum"}]}`
	table, _, err := Parse([]byte(input), log.Discard())
	require.NoError(t, err)
	conv, ok := table.Lookup("s1")
	require.True(t, ok)
	require.Equal(t, "[Customer] kargom nerede\n[Agent] kontrol ediyorum", conv.DialogText)
}

func TestParsePositionalIDAvoidsExplicitID(t *testing.T) {
	input := `[{"dialog_text":"no id"},{"id":0,"dialog_text":"numeric zero"},{"dialog_text":"no id either"},{"id":"2","dialog_text":"string two"}]`
	table, _, err := Parse([]byte(input), log.Discard())
	require.NoError(t, err)
	require.Equal(t, 4, table.Len())

	ids := make([]string, 0, table.Len())
	for _, c := range table.Conversations {
		ids = append(ids, c.ID)
	}
	require.Equal(t, []string{"0#1", "0", "2#1", "2"}, ids)
}

func TestParseDuplicateIDs(t *testing.T) {
	input := `{"id":"a","dialog_text":"1"}
{"id":"a","dialog_text":"2"}`
	_, _, err := Parse([]byte(input), log.Discard())
	require.ErrorIs(t, err, domain.ErrDuplicateID)
}

func TestParseEmptyInput(t *testing.T) {
	table, stats, err := Parse([]byte("  \n"), log.Discard())
	require.NoError(t, err)
	require.Equal(t, 0, table.Len())
	require.Equal(t, LoadStats{}, stats)
}

func TestParseGoldPrefersPrefixedKey(t *testing.T) {
	input := `{"id":"x","gold_intent":"A","intent":"B","response_status":"  "}`
	table, _, err := Parse([]byte(input), log.Discard())
	require.NoError(t, err)
	c, _ := table.Lookup("x")
	require.Equal(t, "A", c.Gold[domain.CategoryIntent])
	_, ok := c.GoldValue(domain.CategoryResponseStatus)
	require.False(t, ok)
}

func TestParseNormalizesToNFC(t *testing.T) {
	input := `{"id":"n","dialog_text":"cafe\u0301"}`
	table, _, err := Parse([]byte(input), log.Discard())
	require.NoError(t, err)
	c, _ := table.Lookup("n")
	require.Equal(t, "caf\u00e9", c.DialogText)
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.jsonl"), log.Discard())
	require.ErrorIs(t, err, domain.ErrMissingFile)
}

func TestLoadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"d","dialog_text":"z"}`+"\n"), 0o644))
	table, _, err := Load(path, log.Discard())
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
}

func TestHead(t *testing.T) {
	input := `{"id":"a","dialog_text":"1"}
{"id":"b","dialog_text":"2"}
{"id":"c","dialog_text":"3"}`
	table, _, err := Parse([]byte(input), log.Discard())
	require.NoError(t, err)
	head := table.Head(2)
	require.Equal(t, 2, head.Len())
	_, ok := head.Lookup("c")
	require.False(t, ok)
	require.Equal(t, 3, table.Head(0).Len())
}

func TestColumns(t *testing.T) {
	cols := Columns()
	require.Equal(t, "conversation_id", cols[0])
	require.Contains(t, cols, "gold_intent_detail")
	require.Len(t, cols, 10)
}
