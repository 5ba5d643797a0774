package service

import (
	"strings"

	prcommentModel "github.com/zpr-ai/zpr/internal/prcomment/model"
)

// Kind tags the outcome of classifying a human reply.
type Kind int

// Classification kinds.
const (
	// KindUnclassified means the reply carries no directive.
	KindUnclassified Kind = iota
	// KindFalseAlarm is the :falseAlarm directive. It is the only kind
	// that also resolves the platform thread.
	KindFalseAlarm
	// KindIgnore covers the :ignore directives.
	KindIgnore
)

// Classification is the result of matching a reply against the directive
// grammar.
type Classification struct {
	Kind    Kind
	Scope   string
	Content string
}

// Feedback converts a classification into the stored feedback record.
func (c Classification) Feedback() prcommentModel.DeveloperFeedback {
	return prcommentModel.DeveloperFeedback{
		FalseAlarm: true,
		Scope:      c.Scope,
		Content:    c.Content,
	}
}

// Classify matches a reply against the directive grammar. Rules are checked
// in order and the first match wins:
//
//	:falseAlarm      -> false alarm, global scope
//	:ignore-project  -> ignore, project scope
//	:ignore-global   -> ignore, global scope
//	:ignore          -> ignore, global scope
//
// Anything else is unclassified. Classification is total and deterministic.
func Classify(reply string) Classification {
	text := strings.TrimSpace(reply)

	switch {
	case strings.HasPrefix(text, ":falseAlarm"):
		return Classification{
			Kind:    KindFalseAlarm,
			Scope:   prcommentModel.ScopeGlobal,
			Content: remainderOr(text, ":falseAlarm", "false alarm"),
		}
	case strings.HasPrefix(text, ":ignore-project"):
		return Classification{
			Kind:    KindIgnore,
			Scope:   prcommentModel.ScopeProject,
			Content: remainderOr(text, ":ignore-project", "ignore"),
		}
	case strings.HasPrefix(text, ":ignore-global"):
		return Classification{
			Kind:    KindIgnore,
			Scope:   prcommentModel.ScopeGlobal,
			Content: remainder(text, ":ignore-global"),
		}
	case strings.HasPrefix(text, ":ignore"):
		// Bare :ignore may carry an arbitrary suffix token; the content is
		// whatever follows the first whitespace-delimited token.
		fields := strings.Fields(text)
		return Classification{
			Kind:    KindIgnore,
			Scope:   prcommentModel.ScopeGlobal,
			Content: strings.Join(fields[1:], " "),
		}
	default:
		return Classification{Kind: KindUnclassified}
	}
}

func remainder(text, prefix string) string {
	return strings.TrimSpace(strings.TrimPrefix(text, prefix))
}

func remainderOr(text, prefix, fallback string) string {
	if rest := remainder(text, prefix); rest != "" {
		return rest
	}
	return fallback
}
