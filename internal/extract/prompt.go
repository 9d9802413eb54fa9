package extract

import (
	"fmt"
	"strings"

	"github.com/Alibek88alarko/LogiGo2/internal/model"
)

const systemPrompt = `You extract structured freight and shipping quote details from business email.`

const promptTemplate = `Read the email below and extract the transportation details it contains.

Email:
"""
%s
"""

Answer with one line per field, using exactly these keys:

%s

Use "key: value" on each line and leave out any field the email does not mention.
request_type is one of: transport request, quote reply, other.
transport_type is the mode (truck, rail, sea, air, ...); transport_subtype the vehicle or container kind.
If the email is not about transportation, answer only: %s`

// BuildPrompt embeds text in the extraction instruction. sentinel is the
// phrase the oracle must answer with when nothing relevant is present.
func BuildPrompt(text, sentinel string) string {
	keys := make([]string, len(model.Vocabulary))
	for i, k := range model.Vocabulary {
		keys[i] = k + ":"
	}
	return fmt.Sprintf(promptTemplate, text, strings.Join(keys, "\n"), sentinel)
}
