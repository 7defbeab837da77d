package session

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/doeshing/shai-mongo/internal/domain"
)

const (
	taskAggregate = "You generate the exact mongosh aggregate command that matches the user's request"
	taskShell     = "You generate a runnable mongosh command that matches the user's request"
	taskQuery     = "You generate the exact mongosh find command that matches the user's request."

	generalSystemPrompt = "Give brief answers without any formatting or markdown."
	askSystemPrompt     = "You are a MongoDB and mongosh expert. Give brief answers without any formatting."
)

func classificationPrompt(collections []string) string {
	return "A user prompted about something which is likely related to a collection. " +
		"You pick the collection that clearly matches the user's request. " +
		"The collections to you have access to are: " + strings.Join(collections, "; ") + ". " +
		"If there is no clear match or if no collection is needed, return 'none'. " +
		"Otherwise, return the collection name. Output only the collection name and nothing else, without formatting."
}

// BuildSystemPrompt describes task together with the current database and
// collection. Sample documents are added only when includeSamples is set, the
// includeSampleDocs setting is on and a collection is active.
func (s *Session) BuildSystemPrompt(ctx context.Context, task string, includeSamples bool) string {
	db := s.db.CurrentDatabaseName()
	coll := s.ActiveCollection()

	var b strings.Builder
	b.WriteString("You are a MongoDB and mongosh expert. " + task + ". Do not provide any text, explanation or formatting. ")
	b.WriteString("Current Database: " + db + ". ")
	if coll != "" {
		b.WriteString("Current Collection: " + coll + ". ")
	}
	if includeSamples && coll != "" && s.cfg.IncludeSampleDocs() {
		if samples, ok := s.sampleDocuments(ctx, coll); ok {
			b.WriteString("Sample documents from " + db + "." + coll + ": " + samples +
				". Skip the use command to switch to the database, it is already set.")
		}
	}
	return b.String()
}

func (s *Session) sampleDocuments(ctx context.Context, coll string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, domain.DatabaseTimeout)
	defer cancel()

	docs, err := s.db.SampleDocuments(ctx, coll, domain.SampleDocumentCount)
	if err != nil {
		s.logger.Warn("sample documents unavailable", map[string]interface{}{
			"collection": coll,
			"error":      err.Error(),
		})
		return "", false
	}
	if docs == nil {
		docs = []map[string]interface{}{}
	}
	raw, err := json.Marshal(docs)
	if err != nil {
		s.logger.Warn("sample documents not encodable", map[string]interface{}{"error": err.Error()})
		return "", false
	}
	return string(raw), true
}
