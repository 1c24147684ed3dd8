package mention

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// VerboseSentinel marks a reference that asks for the full attachment.
const VerboseSentinel = "!"

// ErrTooManyReferences is returned when a message references more distinct
// tickets than allowed.
var ErrTooManyReferences = errors.New("too many ticket references")

var referenceRe = regexp.MustCompile(`(?i)(` + regexp.QuoteMeta(VerboseSentinel) + `)?([A-Z]{1,10}-[0-9]+)`)

// Reference is a ticket key mentioned in a message.
type Reference struct {
	// Key is the upper-cased ticket key
	Key string

	// Verbose is set when the key was prefixed with VerboseSentinel
	Verbose bool
}

// Extractor parses ticket references out of message text.
type Extractor struct {
	maxIssues int
}

// NewExtractor creates an Extractor rejecting messages with more than
// maxIssues distinct references.
func NewExtractor(maxIssues int) *Extractor {
	return &Extractor{maxIssues: maxIssues}
}

// Extract returns the distinct references in text in order of first
// appearance. A key mentioned both plainly and with the sentinel is returned
// once, as verbose.
func (e *Extractor) Extract(text string) ([]Reference, error) {
	var refs []Reference
	index := make(map[string]int)

	for _, match := range referenceRe.FindAllStringSubmatch(text, -1) {
		key := strings.ToUpper(match[2])
		verbose := match[1] != ""

		if i, seen := index[key]; seen {
			if verbose {
				refs[i].Verbose = true
			}
			continue
		}

		index[key] = len(refs)
		refs = append(refs, Reference{Key: key, Verbose: verbose})
	}

	if len(refs) > e.maxIssues {
		return nil, fmt.Errorf("%d references exceed limit of %d: %w", len(refs), e.maxIssues, ErrTooManyReferences)
	}

	return refs, nil
}

// Keys returns the keys of refs.
func Keys(refs []Reference) []string {
	keys := make([]string, len(refs))
	for i, ref := range refs {
		keys[i] = ref.Key
	}
	return keys
}
