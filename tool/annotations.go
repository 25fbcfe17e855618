package tool

import "strings"

var destructiveWords = map[string]bool{
	"delete":    true,
	"remove":    true,
	"clear":     true,
	"uninstall": true,
	"erase":     true,
	"wipe":      true,
	"reset":     true,
	"cancel":    true,
}

var readOnlyWords = map[string]bool{
	"get":     true,
	"list":    true,
	"query":   true,
	"read":    true,
	"check":   true,
	"fetch":   true,
	"show":    true,
	"inspect": true,
}

// deriveAnnotations guesses advisory behavior hints from a tool description.
// Destructive wording wins over read-only wording when both appear.
func deriveAnnotations(description string) map[string]any {
	words := strings.FieldsFunc(strings.ToLower(description), func(r rune) bool {
		return r < 'a' || r > 'z'
	})

	annotations := map[string]any{}
	for _, w := range words {
		if destructiveWords[w] {
			annotations["destructiveHint"] = true
			return annotations
		}
	}
	for _, w := range words {
		if readOnlyWords[w] {
			annotations["readOnlyHint"] = true
			return annotations
		}
	}
	return annotations
}
