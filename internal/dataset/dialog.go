package dataset

import (
	"strings"

	"github.com/tidwall/gjson"
)

const (
	tagCustomer = "[Customer]"
	tagAgent    = "[Agent]"
	tagUnknown  = "[Unknown]"
)

var (
	customerRoles = []string{"user", "customer", "client", "musteri", "müşteri"}
	agentRoles    = []string{"assistant", "bot", "mila", "agent", "operator", "support", "representative", "sales rep"}
)

// coalesceDialog returns dialog_text verbatim, or rebuilds the transcript
// from the record's turn list.
func coalesceDialog(rec gjson.Result) string {
	if v := rec.Get("dialog_text"); v.Exists() && v.Type != gjson.Null && strings.TrimSpace(v.String()) != "" {
		return v.String()
	}

	var turns []gjson.Result
	for _, key := range turnListKeys {
		if v := rec.Get(key); v.IsArray() {
			turns = v.Array()
			break
		}
	}

	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		if !turn.IsObject() {
			continue
		}
		text := firstString(turn, turnTextKeys...)
		if text == "" {
			continue
		}
		lines = append(lines, roleTag(firstString(turn, turnRoleKeys...))+" "+text)
	}
	return strings.Join(lines, "\n")
}

func roleTag(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	for _, r := range customerRoles {
		if role == r {
			return tagCustomer
		}
	}
	for _, r := range agentRoles {
		if role == r {
			return tagAgent
		}
	}
	return tagUnknown
}
