package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"labeleval/internal/domain"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	textunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	idKeys        = []string{"conversation_id", "id", "cid", "sohbet_id"}
	turnListKeys  = []string{"messages", "dialog", "turns", "mesajlar"}
	turnRoleKeys  = []string{"role", "speaker", "sender"}
	turnTextKeys  = []string{"text", "content", "message"}
	startTimeKeys = []string{"start_time", "conversation_start", "start_ts", "started_at"}
	endTimeKeys   = []string{"end_time", "conversation_end", "end_ts", "ended_at"}
)

// Table is the canonical conversation table. Rows keep input order.
type Table struct {
	Conversations []domain.Conversation
	index         map[string]int
}

// LoadStats reports what the loader kept and skipped.
type LoadStats struct {
	Records int
	Skipped int
}

// Columns is the fixed column contract of a loaded table.
func Columns() []string {
	cols := []string{"conversation_id", "dialog_text", "start_time", "end_time", "duration_seconds"}
	for _, c := range domain.Categories() {
		cols = append(cols, c.GoldColumn())
	}
	return cols
}

func (t *Table) Len() int { return len(t.Conversations) }

func (t *Table) Lookup(id string) (domain.Conversation, bool) {
	i, ok := t.index[id]
	if !ok {
		return domain.Conversation{}, false
	}
	return t.Conversations[i], true
}

// Head returns a table holding the first n conversations; n <= 0 keeps all.
func (t *Table) Head(n int) *Table {
	if n <= 0 || n >= len(t.Conversations) {
		return t
	}
	out := &Table{Conversations: t.Conversations[:n], index: make(map[string]int, n)}
	for i, c := range out.Conversations {
		out.index[c.ID] = i
	}
	return out
}

// Load reads a JSON array or JSONL file of raw conversation records.
func Load(path string, log logrus.FieldLogger) (*Table, LoadStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, LoadStats{}, fmt.Errorf("%w: input dataset %q", domain.ErrMissingFile, path)
		}
		return nil, LoadStats{}, fmt.Errorf("read %q: %w", path, err)
	}
	return Parse(data, log)
}

// Parse normalizes raw records. Malformed records are skipped and logged;
// duplicate identifiers fail the whole load with domain.ErrDuplicateID.
func Parse(data []byte, log logrus.FieldLogger) (*Table, LoadStats, error) {
	if log == nil {
		log = logrus.New().WithField("component", "dataset")
	}

	decoded, _, err := transform.Bytes(textunicode.BOMOverride(textunicode.UTF8.NewDecoder()), data)
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("decode input: %w", err)
	}

	records, skipped := splitRecords(bytes.TrimSpace(decoded), log)
	stats := LoadStats{Records: len(records), Skipped: skipped}

	table := &Table{
		Conversations: make([]domain.Conversation, 0, len(records)),
		index:         make(map[string]int, len(records)),
	}
	convs := make([]domain.Conversation, len(records))
	explicit := make(map[string]struct{}, len(records))
	for i, rec := range records {
		convs[i] = normalizeRecord(rec)
		if convs[i].ID != "" {
			explicit[convs[i].ID] = struct{}{}
		}
	}

	var duplicates []string
	for i, conv := range convs {
		if conv.ID == "" {
			conv.ID = positionalID(i, explicit)
		}
		if _, exists := table.index[conv.ID]; exists {
			duplicates = append(duplicates, conv.ID)
			continue
		}
		table.index[conv.ID] = len(table.Conversations)
		table.Conversations = append(table.Conversations, conv)
	}
	if len(duplicates) > 0 {
		return nil, stats, fmt.Errorf("%w: %s", domain.ErrDuplicateID, strings.Join(duplicates, ", "))
	}
	return table, stats, nil
}

func splitRecords(raw []byte, log logrus.FieldLogger) ([]gjson.Result, int) {
	if len(raw) == 0 {
		return nil, 0
	}

	if raw[0] == '[' && gjson.ValidBytes(raw) {
		var records []gjson.Result
		skipped := 0
		for i, elem := range gjson.ParseBytes(raw).Array() {
			if !elem.IsObject() {
				log.WithFields(logrus.Fields{"element": i}).Warn("dataset skipped non-object array element")
				skipped++
				continue
			}
			records = append(records, elem)
		}
		return records, skipped
	}

	var records []gjson.Result
	skipped := 0
	for n, line := range bytes.Split(raw, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			log.WithFields(logrus.Fields{"line": n + 1, "error": domain.ErrMalformedRecord}).Warn("dataset skipped malformed line")
			skipped++
			continue
		}
		rec := gjson.ParseBytes(line)
		if !rec.IsObject() {
			log.WithFields(logrus.Fields{"line": n + 1}).Warn("dataset skipped non-object line")
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped
}

// normalizeRecord leaves ID empty when the record carries none.
func normalizeRecord(rec gjson.Result) domain.Conversation {
	conv := domain.Conversation{
		ID:         recordID(rec),
		DialogText: norm.NFC.String(coalesceDialog(rec)),
		StartTime:  ParseTimestamp(firstString(rec, startTimeKeys...)),
		EndTime:    ParseTimestamp(firstString(rec, endTimeKeys...)),
		Gold:       make(map[domain.Category]string),
	}
	if conv.StartTime != nil && conv.EndTime != nil {
		seconds := int64(conv.EndTime.Sub(*conv.StartTime).Seconds())
		conv.DurationSeconds = &seconds
	}
	for _, c := range domain.Categories() {
		if v := firstString(rec, c.GoldColumn(), string(c)); v != "" {
			conv.Gold[c] = v
		}
	}
	return conv
}

func recordID(rec gjson.Result) string {
	for _, key := range idKeys {
		v := rec.Get(key)
		switch v.Type {
		case gjson.String:
			if s := strings.TrimSpace(v.Str); s != "" {
				return s
			}
		case gjson.Number:
			return v.Raw
		}
	}
	return ""
}

// positionalID is the record index, suffixed until it no longer collides
// with an explicit identifier from the same input.
func positionalID(position int, explicit map[string]struct{}) string {
	id := strconv.Itoa(position)
	for n := 1; ; n++ {
		if _, taken := explicit[id]; !taken {
			return id
		}
		id = strconv.Itoa(position) + "#" + strconv.Itoa(n)
	}
}

func firstString(rec gjson.Result, keys ...string) string {
	for _, key := range keys {
		v := rec.Get(key)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		if s := strings.TrimSpace(v.String()); s != "" {
			return s
		}
	}
	return ""
}
